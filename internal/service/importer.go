package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database"
	"github.com/lcrowe/ledgerline/internal/database/repository"
	"github.com/lcrowe/ledgerline/internal/textnorm"
)

var (
	// ErrDuplicateEntry reports a manual entry whose fingerprint already
	// exists for the owner.
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrCreditAccountManualEntry rejects manual writes against credit
	// accounts. Card activity must arrive through statement import so the
	// payment matcher sees a consistent picture.
	ErrCreditAccountManualEntry = errors.New("CREDIT_ACCOUNT_MANUAL_NOT_ALLOWED")
)

// Importer turns normalized statement rows into ledger entries.
type Importer struct {
	DB           *sql.DB
	Institutions *repository.InstitutionRepo
	Accounts     *repository.AccountRepo
	Batches      *repository.BatchRepo
	Entries      *repository.EntryRepo
	Log          zerolog.Logger
}

// ImportRow is one normalized statement row ready to be written.
type ImportRow struct {
	Line        int
	PostedAt    time.Time
	AmountCents int64
	Description string
	Category    *string
	AccountHint string
	ExternalRef *string
}

// ImportRequest describes a single statement file import.
type ImportRequest struct {
	OwnerID         string
	InstitutionID   string
	InstitutionName string
	Kind            string
	FileName        string
	FileHash        string

	// DefaultAccountID receives bank statement rows with no account hint.
	// DefaultCardAccountID does the same for card statements and must point
	// at a credit account.
	DefaultAccountID     string
	DefaultCardAccountID string

	Rows []ImportRow
}

// ImportResult summarizes what a statement import did.
type ImportResult struct {
	BatchID               string
	Imported              int
	Deduped               int
	DuplicateImportSource bool
}

var errDuplicateBatch = errors.New("duplicate import batch")

// Import writes every row of a statement inside one transaction. A file hash
// already recorded for the institution short-circuits before any write, and
// rows whose fingerprint already exists are counted as deduped rather than
// failing the batch.
func (s *Importer) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	if req.OwnerID == "" {
		return nil, fmt.Errorf("import: owner id is required")
	}
	if req.Kind != repository.BatchBankStatement && req.Kind != repository.BatchCardStatement {
		return nil, fmt.Errorf("import: unknown statement kind %q", req.Kind)
	}
	if req.FileHash == "" {
		return nil, fmt.Errorf("import: file hash is required")
	}

	inst, err := s.resolveInstitution(ctx, req)
	if err != nil {
		return nil, err
	}

	existing, err := s.Batches.GetByHash(ctx, req.OwnerID, inst.ID, req.FileHash)
	if err != nil {
		return nil, fmt.Errorf("check batch hash: %w", err)
	}
	if existing != nil {
		s.Log.Info().
			Str("file", req.FileName).
			Str("batch_id", existing.ID).
			Msg("statement already imported")
		return &ImportResult{BatchID: existing.ID, DuplicateImportSource: true}, nil
	}

	defaultAcct, err := s.resolveDefaultAccount(ctx, req)
	if err != nil {
		return nil, err
	}

	byName, err := s.accountsByName(ctx, req.OwnerID)
	if err != nil {
		return nil, err
	}

	res := &ImportResult{}
	err = database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		batches := repository.NewBatchRepo(tx)
		entries := repository.NewEntryRepo(tx)

		batch := repository.ImportBatch{
			ID:            uuid.NewString(),
			OwnerID:       req.OwnerID,
			InstitutionID: inst.ID,
			Kind:          req.Kind,
			FileName:      req.FileName,
			FileHash:      req.FileHash,
		}
		if err := batches.Insert(ctx, batch); err != nil {
			if isUniqueViolation(err) {
				return errDuplicateBatch
			}
			return fmt.Errorf("insert batch: %w", err)
		}
		res.BatchID = batch.ID

		for _, row := range req.Rows {
			acct := defaultAcct
			if row.AccountHint != "" {
				if hinted, ok := byName[textnorm.Fold(row.AccountHint)]; ok {
					acct = hinted
				}
			}

			entry := buildEntry(req.OwnerID, acct.ID, row)
			entry.ImportBatchID = &batch.ID

			if err := entries.Insert(ctx, entry); err != nil {
				if isUniqueViolation(err) {
					res.Deduped++
					continue
				}
				return fmt.Errorf("insert row (line %d): %w", row.Line, err)
			}
			res.Imported++
		}

		return batches.UpdateCounts(ctx, batch.ID, res.Imported, res.Deduped)
	})
	if errors.Is(err, errDuplicateBatch) {
		// another import of the same file landed between the hash check and
		// the insert
		return &ImportResult{DuplicateImportSource: true}, nil
	}
	if err != nil {
		return nil, err
	}

	s.Log.Info().
		Str("file", req.FileName).
		Str("batch_id", res.BatchID).
		Int("imported", res.Imported).
		Int("deduped", res.Deduped).
		Msg("statement imported")
	return res, nil
}

// ManualEntry is a hand-entered movement.
type ManualEntry struct {
	OwnerID     string
	AccountID   string
	PostedAt    time.Time
	AmountCents int64
	Description string
	Category    *string
	Excluded    bool
}

// WriteManual records a single manual entry. Credit accounts are refused.
func (s *Importer) WriteManual(ctx context.Context, m ManualEntry) (*repository.LedgerEntry, error) {
	if m.AmountCents == 0 {
		return nil, fmt.Errorf("manual entry: amount must be nonzero")
	}
	if strings.TrimSpace(m.Description) == "" {
		return nil, fmt.Errorf("manual entry: description is required")
	}

	acct, err := s.Accounts.Get(ctx, m.OwnerID, m.AccountID)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s not found", m.AccountID)
	}
	if acct.Kind == repository.AccountCredit {
		return nil, ErrCreditAccountManualEntry
	}

	entry := buildEntry(m.OwnerID, acct.ID, ImportRow{
		PostedAt:    m.PostedAt,
		AmountCents: m.AmountCents,
		Description: m.Description,
		Category:    m.Category,
	})
	entry.Manual = true
	entry.Excluded = m.Excluded

	if err := s.Entries.Insert(ctx, entry); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEntry
		}
		return nil, fmt.Errorf("insert manual entry: %w", err)
	}
	return &entry, nil
}

func (s *Importer) resolveInstitution(ctx context.Context, req ImportRequest) (*repository.Institution, error) {
	if req.InstitutionID != "" {
		inst, err := s.Institutions.Get(ctx, req.OwnerID, req.InstitutionID)
		if err != nil {
			return nil, fmt.Errorf("load institution: %w", err)
		}
		if inst == nil {
			return nil, fmt.Errorf("institution %s not found", req.InstitutionID)
		}
		return inst, nil
	}
	if req.InstitutionName == "" {
		return nil, fmt.Errorf("import: institution is required")
	}
	inst, err := s.Institutions.Ensure(ctx, req.OwnerID, req.InstitutionName)
	if err != nil {
		return nil, fmt.Errorf("ensure institution: %w", err)
	}
	return inst, nil
}

func (s *Importer) resolveDefaultAccount(ctx context.Context, req ImportRequest) (*repository.Account, error) {
	id := req.DefaultAccountID
	if req.Kind == repository.BatchCardStatement {
		id = req.DefaultCardAccountID
	}
	if id == "" {
		return nil, fmt.Errorf("import: no default account for %s", req.Kind)
	}
	acct, err := s.Accounts.Get(ctx, req.OwnerID, id)
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acct == nil {
		return nil, fmt.Errorf("account %s not found", id)
	}
	if req.Kind == repository.BatchCardStatement && acct.Kind != repository.AccountCredit {
		return nil, fmt.Errorf("card statement requires a credit account, %s is %s", acct.Name, acct.Kind)
	}
	return acct, nil
}

func (s *Importer) accountsByName(ctx context.Context, ownerID string) (map[string]*repository.Account, error) {
	accounts, err := s.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	byName := make(map[string]*repository.Account, len(accounts))
	for i := range accounts {
		byName[textnorm.Fold(accounts[i].Name)] = &accounts[i]
	}
	return byName, nil
}

func buildEntry(ownerID, accountID string, row ImportRow) repository.LedgerEntry {
	typ := repository.EntryIncome
	direction := repository.DirectionIn
	if row.AmountCents < 0 {
		typ = repository.EntryExpense
		direction = repository.DirectionOut
	}

	fp := Fingerprint(ownerID, row.PostedAt, row.Description, row.AmountCents, typ, row.Category)
	return repository.LedgerEntry{
		ID:                    uuid.NewString(),
		OwnerID:               ownerID,
		AccountID:             accountID,
		PostedAt:              row.PostedAt,
		AmountCents:           row.AmountCents,
		Type:                  typ,
		Direction:             direction,
		Description:           strings.TrimSpace(row.Description),
		NormalizedDescription: textnorm.ForHash(row.Description),
		Category:              row.Category,
		ExternalRef:           row.ExternalRef,
		Fingerprint:           &fp,
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE")
}
