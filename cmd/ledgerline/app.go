package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/config"
	"github.com/lcrowe/ledgerline/internal/database"
	"github.com/lcrowe/ledgerline/internal/database/repository"
	"github.com/lcrowe/ledgerline/internal/logger"
	"github.com/lcrowe/ledgerline/internal/service"
)

// app carries the wired repositories and services a subcommand works with.
type app struct {
	Config config.Config
	Log    zerolog.Logger
	DB     *sql.DB

	Institutions *repository.InstitutionRepo
	Accounts     *repository.AccountRepo
	Batches      *repository.BatchRepo
	Entries      *repository.EntryRepo
	Transfers    *repository.TransferRepo

	Importer    *service.Importer
	Matcher     *service.Matcher
	Reports     *service.Reports
	Recurring   *service.Recurring
	Maintenance *service.Maintenance
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Log.Level)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	instRepo := repository.NewInstitutionRepo(db)
	acctRepo := repository.NewAccountRepo(db)
	batchRepo := repository.NewBatchRepo(db)
	entryRepo := repository.NewEntryRepo(db)
	transferRepo := repository.NewTransferRepo(db)

	return &app{
		Config:       cfg,
		Log:          log,
		DB:           db,
		Institutions: instRepo,
		Accounts:     acctRepo,
		Batches:      batchRepo,
		Entries:      entryRepo,
		Transfers:    transferRepo,
		Importer: &service.Importer{
			DB: db, Institutions: instRepo, Accounts: acctRepo, Batches: batchRepo, Entries: entryRepo, Log: log,
		},
		Matcher: &service.Matcher{
			DB: db, Entries: entryRepo, Accounts: acctRepo, Transfers: transferRepo, Log: log,
			WindowDays:        cfg.Matcher.DateWindowDays,
			FeeToleranceCents: cfg.Matcher.FeeToleranceCents,
		},
		Reports: &service.Reports{Entries: entryRepo, Accounts: acctRepo, Log: log},
		Recurring: &service.Recurring{
			Entries: entryRepo, Log: log,
			MinOccurrences:     cfg.Recurring.MinOccurrences,
			AmountTolerancePct: cfg.Recurring.AmountTolerancePct,
			DayTolerance:       cfg.Recurring.DayTolerance,
		},
		Maintenance: &service.Maintenance{DB: db, Log: log},
	}, nil
}

func (a *app) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// owner returns the configured owner id, the scope every command operates in.
func (a *app) owner() string { return a.Config.Owner.ID }

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
