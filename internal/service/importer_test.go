package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lcrowe/ledgerline/internal/database"
	"github.com/lcrowe/ledgerline/internal/database/repository"
)

const testOwner = "owner-test"

type testEnv struct {
	db           *sql.DB
	institutions *repository.InstitutionRepo
	accounts     *repository.AccountRepo
	batches      *repository.BatchRepo
	entries      *repository.EntryRepo
	transfers    *repository.TransferRepo

	importer  *Importer
	matcher   *Matcher
	reports   *Reports
	recurring *Recurring
}

func setupServiceTest(t *testing.T) (*testEnv, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	env := &testEnv{
		db:           db,
		institutions: repository.NewInstitutionRepo(db),
		accounts:     repository.NewAccountRepo(db),
		batches:      repository.NewBatchRepo(db),
		entries:      repository.NewEntryRepo(db),
		transfers:    repository.NewTransferRepo(db),
	}
	log := zerolog.Nop()
	env.importer = &Importer{
		DB: db, Institutions: env.institutions, Accounts: env.accounts,
		Batches: env.batches, Entries: env.entries, Log: log,
	}
	env.matcher = &Matcher{
		DB: db, Entries: env.entries, Accounts: env.accounts, Transfers: env.transfers,
		Log: log, WindowDays: 3, FeeToleranceCents: 200,
	}
	env.reports = &Reports{Entries: env.entries, Accounts: env.accounts, Log: log}
	env.recurring = &Recurring{
		Entries: env.entries, Log: log,
		MinOccurrences: 2, AmountTolerancePct: 12, DayTolerance: 3,
	}
	return env, ctx
}

func (e *testEnv) mustAccount(t *testing.T, ctx context.Context, name, kind string, parentID *string) repository.Account {
	t.Helper()
	inst, err := e.institutions.Ensure(ctx, testOwner, "Test Bank")
	require.NoError(t, err)
	acct := repository.Account{
		ID: uuid.NewString(), OwnerID: testOwner, InstitutionID: inst.ID,
		Name: name, Kind: kind, Currency: "USD", ParentAccountID: parentID,
	}
	require.NoError(t, e.accounts.Insert(ctx, acct))
	return acct
}

func (e *testEnv) countEntries(t *testing.T, ctx context.Context) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM ledger_entries").Scan(&n))
	return n
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func row(date string, cents int64, desc string) ImportRow {
	return ImportRow{PostedAt: day(date), AmountCents: cents, Description: desc}
}

// bankRequest builds an import keyed by file name, so reusing a name
// simulates re-importing the same file.
func bankRequest(accountID, fileName string, rows ...ImportRow) ImportRequest {
	return ImportRequest{
		OwnerID:          testOwner,
		InstitutionName:  "Test Bank",
		Kind:             repository.BatchBankStatement,
		FileName:         fileName,
		FileHash:         HashContent([]byte(fileName)),
		DefaultAccountID: accountID,
		Rows:             rows,
	}
}

func TestImport_WritesRows(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	res, err := env.importer.Import(ctx, bankRequest(acct.ID, "jan.csv",
		row("2026-01-05", -4250, "COFFEE BAR"),
		row("2026-01-06", 250000, "PAYROLL ACME"),
	))
	require.NoError(t, err)
	require.False(t, res.DuplicateImportSource)
	require.Equal(t, 2, res.Imported)
	require.Equal(t, 0, res.Deduped)
	require.NotEmpty(t, res.BatchID)

	entries, err := env.entries.List(ctx, testOwner, repository.EntryFilters{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, acct.ID, e.AccountID)
		require.NotNil(t, e.Fingerprint)
		require.NotNil(t, e.ImportBatchID)
		require.False(t, e.Manual)
		if e.AmountCents < 0 {
			require.Equal(t, repository.EntryExpense, e.Type)
			require.Equal(t, repository.DirectionOut, e.Direction)
		} else {
			require.Equal(t, repository.EntryIncome, e.Type)
			require.Equal(t, repository.DirectionIn, e.Direction)
		}
	}

	batch, err := env.batches.Get(ctx, testOwner, res.BatchID)
	require.NoError(t, err)
	require.NotNil(t, batch)
	require.Equal(t, 2, batch.ImportedRows)
	require.Equal(t, 0, batch.DuplicateRows)
}

func TestImport_SameFileIsDuplicateSource(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	req := bankRequest(acct.ID, "feb.csv",
		row("2026-02-01", -1000, "LUNCH"),
		row("2026-02-02", -2000, "DINNER"),
	)
	first, err := env.importer.Import(ctx, req)
	require.NoError(t, err)
	require.Equal(t, 2, first.Imported)

	second, err := env.importer.Import(ctx, req)
	require.NoError(t, err)
	require.True(t, second.DuplicateImportSource)
	require.Equal(t, 0, second.Imported)
	require.Equal(t, first.BatchID, second.BatchID)

	require.Equal(t, 2, env.countEntries(t, ctx))
}

func TestImport_FingerprintDedupeAcrossFiles(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	_, err := env.importer.Import(ctx, bankRequest(acct.ID, "mar-a.csv",
		row("2026-03-03", -5500, "SUPERMARKET"),
	))
	require.NoError(t, err)

	// same movement shows up again in an overlapping export
	res, err := env.importer.Import(ctx, bankRequest(acct.ID, "mar-b.csv",
		row("2026-03-03", -5500, "SUPERMARKET"),
		row("2026-03-04", -1200, "BAKERY"),
	))
	require.NoError(t, err)
	require.False(t, res.DuplicateImportSource)
	require.Equal(t, 1, res.Imported)
	require.Equal(t, 1, res.Deduped)

	require.Equal(t, 2, env.countEntries(t, ctx))
}

func TestImport_AccountHintRouting(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	everyday := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	hinted := row("2026-04-02", -3000, "MOVED ASIDE")
	hinted.AccountHint = "rainy day"

	res, err := env.importer.Import(ctx, bankRequest(everyday.ID, "apr.csv",
		row("2026-04-01", -1500, "GROCERIES"),
		hinted,
	))
	require.NoError(t, err)
	require.Equal(t, 2, res.Imported)

	onSavings, err := env.entries.List(ctx, testOwner, repository.EntryFilters{AccountID: savings.ID})
	require.NoError(t, err)
	require.Len(t, onSavings, 1)
	require.Equal(t, "MOVED ASIDE", onSavings[0].Description)
}

func TestImport_CardStatementNeedsCreditAccount(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	req := bankRequest(checking.ID, "card.csv", row("2026-05-01", -9900, "GADGET STORE"))
	req.Kind = repository.BatchCardStatement
	req.DefaultCardAccountID = checking.ID

	_, err := env.importer.Import(ctx, req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "credit account")
	require.Equal(t, 0, env.countEntries(t, ctx))
}

func TestWriteManual_RejectsCreditAccount(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	card := env.mustAccount(t, ctx, "Visa", repository.AccountCredit, &checking.ID)

	_, err := env.importer.WriteManual(ctx, ManualEntry{
		OwnerID: testOwner, AccountID: card.ID,
		PostedAt: day("2026-05-10"), AmountCents: -4500, Description: "SHOULD FAIL",
	})
	require.ErrorIs(t, err, ErrCreditAccountManualEntry)
	require.Equal(t, 0, env.countEntries(t, ctx))
}

func TestWriteManual_DuplicateRejected(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	m := ManualEntry{
		OwnerID: testOwner, AccountID: acct.ID,
		PostedAt: day("2026-05-12"), AmountCents: -700, Description: "Newspaper",
	}
	first, err := env.importer.WriteManual(ctx, m)
	require.NoError(t, err)
	require.True(t, first.Manual)

	_, err = env.importer.WriteManual(ctx, m)
	require.ErrorIs(t, err, ErrDuplicateEntry)
	require.Equal(t, 1, env.countEntries(t, ctx))
}

func TestFingerprint_NormalizesIdentity(t *testing.T) {
	t.Parallel()

	a := Fingerprint(testOwner, day("2026-01-05"), "CAFÉ  Paris", -4250, repository.EntryExpense, nil)
	b := Fingerprint(testOwner, day("2026-01-05"), "cafe paris", -4250, repository.EntryExpense, nil)
	require.Equal(t, a, b, "case, spacing and diacritics must not change identity")

	c := Fingerprint(testOwner, day("2026-01-06"), "cafe paris", -4250, repository.EntryExpense, nil)
	require.NotEqual(t, a, c, "date is part of identity")

	food := "Food"
	d := Fingerprint(testOwner, day("2026-01-05"), "cafe paris", -4250, repository.EntryExpense, &food)
	require.NotEqual(t, a, d, "category is part of identity")
}
