package service

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

func TestReset_WipesOwnerData(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	// populate every table: a batch, entries and a confirmed link
	_, err := env.importer.Import(ctx, bankRequest(checking.ID, "jul.csv",
		row("2026-07-01", -4200, "GROCERIES"),
	))
	require.NoError(t, err)
	env.mustEntry(t, ctx, checking.ID, "2026-07-10", -25000, "TO SAVINGS")
	env.mustEntry(t, ctx, savings.ID, "2026-07-10", 25000, "FROM EVERYDAY")
	match, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, match.Matched)

	other, err := env.institutions.Ensure(ctx, "owner-other", "Other Bank")
	require.NoError(t, err)

	m := &Maintenance{DB: env.db, Log: zerolog.Nop()}
	require.NoError(t, m.Reset(ctx, testOwner))

	for _, table := range []string{"institutions", "accounts", "import_batches", "ledger_entries", "transfer_links"} {
		var n int
		require.NoError(t, env.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+table+" WHERE owner_id = ?", testOwner).Scan(&n))
		require.Zero(t, n, table)
	}

	kept, err := env.institutions.Get(ctx, "owner-other", other.ID)
	require.NoError(t, err)
	require.NotNil(t, kept, "another owner's data must survive")

	// schema survives and the file hash is forgotten, so the owner can start over
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	res, err := env.importer.Import(ctx, bankRequest(acct.ID, "jul.csv",
		row("2026-07-01", -4200, "GROCERIES"),
	))
	require.NoError(t, err)
	require.False(t, res.DuplicateImportSource)
	require.Equal(t, 1, env.countEntries(t, ctx))
}

func TestReset_RequiresOwner(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)

	m := &Maintenance{DB: env.db, Log: zerolog.Nop()}
	require.Error(t, m.Reset(ctx, ""))
}
