package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

func (e *testEnv) mustEntry(t *testing.T, ctx context.Context, accountID, date string, cents int64, desc string) repository.LedgerEntry {
	t.Helper()
	entry := buildEntry(testOwner, accountID, ImportRow{
		PostedAt:    day(date),
		AmountCents: cents,
		Description: desc,
	})
	require.NoError(t, e.entries.Insert(ctx, entry))
	return entry
}

func (e *testEnv) reload(t *testing.T, ctx context.Context, id string) *repository.LedgerEntry {
	t.Helper()
	entry, err := e.entries.Get(ctx, testOwner, id)
	require.NoError(t, err)
	require.NotNil(t, entry)
	return entry
}

func TestMatch_ExactPairLinksAndReclassifies(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	out := env.mustEntry(t, ctx, checking.ID, "2026-01-10", -50000, "TRANSFER TO SAVINGS")
	in := env.mustEntry(t, ctx, savings.ID, "2026-01-11", 50000, "TRANSFER FROM EVERYDAY")

	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, res.Matched)
	require.Equal(t, 0, res.Suggested)

	for _, id := range []string{out.ID, in.ID} {
		got := env.reload(t, ctx, id)
		require.Equal(t, repository.EntryTransfer, got.Type)
		require.NotNil(t, got.OriginalType)
		require.NotNil(t, got.TransferLinkID)
	}
	require.Equal(t, repository.EntryExpense, *env.reload(t, ctx, out.ID).OriginalType)
	require.Equal(t, repository.EntryIncome, *env.reload(t, ctx, in.ID).OriginalType)

	// both legs reclassified, so the pair no longer moves income or expense
	totals, err := env.entries.SumTotals(ctx, testOwner, repository.EntryFilters{})
	require.NoError(t, err)
	require.Zero(t, totals.IncomeCents)
	require.Zero(t, totals.ExpenseCents)

	t.Log("re-running the matcher over linked entries")
	again, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Zero(t, again.Matched+again.CardPayments+again.Suggested)

	links, err := env.transfers.ListByStatus(ctx, testOwner, repository.LinkConfirmed)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, repository.MatchAuto, links[0].MatchKind)
}

func TestMatch_CardPaymentKind(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	card := env.mustAccount(t, ctx, "Visa", repository.AccountCredit, &checking.ID)

	env.mustEntry(t, ctx, checking.ID, "2026-02-05", -120000, "PAYMENT VISA")
	env.mustEntry(t, ctx, card.ID, "2026-02-06", 120000, "PAYMENT RECEIVED")

	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, res.CardPayments)
	require.Equal(t, 0, res.Matched)

	links, err := env.transfers.ListByStatus(ctx, testOwner, repository.LinkConfirmed)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, repository.MatchCardPayment, links[0].MatchKind)
}

func TestMatch_FeeGapBecomesSuggestion(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	out := env.mustEntry(t, ctx, checking.ID, "2026-03-01", -100000, "WIRE OUT")
	in := env.mustEntry(t, ctx, savings.ID, "2026-03-02", 99850, "WIRE IN")

	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, res.Suggested)
	require.Equal(t, 0, res.Matched)

	// a suggestion must not touch the entries until someone confirms it
	require.Equal(t, repository.EntryExpense, env.reload(t, ctx, out.ID).Type)
	require.Equal(t, repository.EntryIncome, env.reload(t, ctx, in.ID).Type)
	require.Nil(t, env.reload(t, ctx, out.ID).TransferLinkID)

	items, err := env.matcher.Inbox(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, out.ID, items[0].Out.ID)
	require.Equal(t, in.ID, items[0].In.ID)
	require.NotNil(t, items[0].Link.FeeDeltaCents)
	require.Equal(t, int64(150), *items[0].Link.FeeDeltaCents)
	require.NotNil(t, items[0].Link.Confidence)
	require.Greater(t, *items[0].Link.Confidence, 0.0)
	require.LessOrEqual(t, *items[0].Link.Confidence, 1.0)
}

func TestMatch_PrefersCloserDate(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)
	cash := env.mustAccount(t, ctx, "Wallet", repository.AccountCash, nil)

	env.mustEntry(t, ctx, checking.ID, "2026-04-10", -30000, "MOVE MONEY")
	env.mustEntry(t, ctx, savings.ID, "2026-04-12", 30000, "DEPOSIT")
	sameDay := env.mustEntry(t, ctx, cash.ID, "2026-04-10", 30000, "CASH IN")

	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, 1, res.Matched)

	links, err := env.transfers.ListByStatus(ctx, testOwner, repository.LinkConfirmed)
	require.NoError(t, err)
	require.Len(t, links, 1)
	require.Equal(t, sameDay.ID, links[0].InEntryID)
}

func TestMatch_OutsideWindowIgnored(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, checking.ID, "2026-05-01", -25000, "MOVE")
	env.mustEntry(t, ctx, savings.ID, "2026-05-10", 25000, "ARRIVE")

	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Zero(t, res.Matched+res.CardPayments+res.Suggested)
}

func TestConfirm_ReclassifiesBothLegs(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	out := env.mustEntry(t, ctx, checking.ID, "2026-06-01", -80000, "WIRE OUT")
	in := env.mustEntry(t, ctx, savings.ID, "2026-06-02", 79900, "WIRE IN")

	_, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	items, err := env.matcher.Inbox(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, env.matcher.Confirm(ctx, testOwner, items[0].Link.ID))

	require.Equal(t, repository.EntryTransfer, env.reload(t, ctx, out.ID).Type)
	require.Equal(t, repository.EntryTransfer, env.reload(t, ctx, in.ID).Type)

	link, err := env.transfers.Get(ctx, testOwner, items[0].Link.ID)
	require.NoError(t, err)
	require.Equal(t, repository.LinkConfirmed, link.Status)

	err = env.matcher.Confirm(ctx, testOwner, items[0].Link.ID)
	require.Error(t, err, "confirming twice must fail")
}

func TestDismiss_NeverReoffered(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	out := env.mustEntry(t, ctx, checking.ID, "2026-07-01", -60000, "WIRE OUT")
	env.mustEntry(t, ctx, savings.ID, "2026-07-02", 59950, "WIRE IN")

	_, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	items, err := env.matcher.Inbox(ctx, testOwner)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, env.matcher.Dismiss(ctx, testOwner, items[0].Link.ID))
	require.Equal(t, repository.EntryExpense, env.reload(t, ctx, out.ID).Type)

	t.Log("matching again after dismissal")
	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Zero(t, res.Suggested)

	items, err = env.matcher.Inbox(ctx, testOwner)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestUnlink_RevertsAndStaysBroken(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	out := env.mustEntry(t, ctx, checking.ID, "2026-08-01", -40000, "MOVE OUT")
	in := env.mustEntry(t, ctx, savings.ID, "2026-08-01", 40000, "MOVE IN")

	_, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Equal(t, repository.EntryTransfer, env.reload(t, ctx, out.ID).Type)

	require.NoError(t, env.matcher.Unlink(ctx, testOwner, out.ID))

	gotOut, gotIn := env.reload(t, ctx, out.ID), env.reload(t, ctx, in.ID)
	require.Equal(t, repository.EntryExpense, gotOut.Type)
	require.Equal(t, repository.EntryIncome, gotIn.Type)
	require.Nil(t, gotOut.OriginalType)
	require.Nil(t, gotOut.TransferLinkID)
	require.Nil(t, gotIn.TransferLinkID)

	t.Log("matching again after the manual unlink")
	res, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)
	require.Zero(t, res.Matched+res.CardPayments+res.Suggested, "a broken pair must stay broken")

	// unlinking an entry with no link is a no-op
	require.NoError(t, env.matcher.Unlink(ctx, testOwner, out.ID))
}
