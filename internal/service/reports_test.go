package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

func TestSummary_MonthAlignedPrevious(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, acct.ID, "2026-01-10", 100000, "PAYROLL")
	env.mustEntry(t, ctx, acct.ID, "2026-01-20", -40000, "RENT")
	env.mustEntry(t, ctx, acct.ID, "2026-02-10", 110000, "PAYROLL")
	env.mustEntry(t, ctx, acct.ID, "2026-02-15", -50000, "RENT")

	s, err := env.reports.Summary(ctx, testOwner, day("2026-02-01"), day("2026-02-28"), Filter{})
	require.NoError(t, err)

	require.Equal(t, int64(110000), s.Current.IncomeCents)
	require.Equal(t, int64(50000), s.Current.ExpenseCents)
	require.Equal(t, int64(60000), s.Current.NetCents)

	// February compares against all of January, not a 28-day slice of it
	require.Equal(t, day("2026-01-01"), s.Previous.From)
	require.Equal(t, day("2026-01-31"), s.Previous.To)
	require.Equal(t, int64(100000), s.Previous.IncomeCents)

	require.NotNil(t, s.IncomeDeltaPct)
	require.InDelta(t, 10.0, *s.IncomeDeltaPct, 0.001)
	require.NotNil(t, s.ExpenseDeltaPct)
	require.InDelta(t, 25.0, *s.ExpenseDeltaPct, 0.001)
}

func TestSummary_DayCountPrevious(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, acct.ID, "2026-04-12", -2000, "LUNCH")

	s, err := env.reports.Summary(ctx, testOwner, day("2026-04-10"), day("2026-04-16"), Filter{})
	require.NoError(t, err)
	require.Equal(t, day("2026-04-03"), s.Previous.From)
	require.Equal(t, day("2026-04-09"), s.Previous.To)
	require.Nil(t, s.IncomeDeltaPct, "no previous income means no delta")
}

func TestSummary_ExcludedStaysOutOfTotals(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, acct.ID, "2026-05-05", -20000, "GROCERIES")
	refund := env.mustEntry(t, ctx, acct.ID, "2026-05-06", -15000, "REIMBURSABLE WORK DINNER")
	require.NoError(t, env.entries.SetExcluded(ctx, testOwner, refund.ID, true))

	s, err := env.reports.Summary(ctx, testOwner, day("2026-05-01"), day("2026-05-31"), Filter{})
	require.NoError(t, err)
	require.Equal(t, int64(20000), s.Current.ExpenseCents)
	require.Equal(t, int64(-15000), s.Current.ExcludedCents)
}

func TestTrends_EmptyRangeZeroFills(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)

	points, err := env.reports.Trends(ctx, testOwner, day("2026-06-01"), day("2026-06-07"), GranularityDay, Filter{})
	require.NoError(t, err)
	require.Len(t, points, 7)
	for i, p := range points {
		require.Equal(t, day("2026-06-01").AddDate(0, 0, i), p.Bucket)
		require.Zero(t, p.IncomeCents)
		require.Zero(t, p.ExpenseCents)
		require.Zero(t, p.NetCents)
	}
}

func TestTrends_WeekBucketsStartMonday(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	// 2026-03-04 is a Wednesday, 2026-03-10 the following Tuesday
	env.mustEntry(t, ctx, acct.ID, "2026-03-04", -1000, "COFFEE")
	env.mustEntry(t, ctx, acct.ID, "2026-03-10", 5000, "REFUND")

	points, err := env.reports.Trends(ctx, testOwner, day("2026-03-04"), day("2026-03-10"), GranularityWeek, Filter{})
	require.NoError(t, err)
	require.Len(t, points, 2)
	require.Equal(t, day("2026-03-02"), points[0].Bucket)
	require.Equal(t, day("2026-03-09"), points[1].Bucket)
	require.Equal(t, int64(1000), points[0].ExpenseCents)
	require.Equal(t, int64(5000), points[1].IncomeCents)
}

func TestTrends_MonthBuckets(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	acct := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, acct.ID, "2026-01-20", -3000, "DINNER")
	env.mustEntry(t, ctx, acct.ID, "2026-03-05", -4000, "DINNER OUT")

	points, err := env.reports.Trends(ctx, testOwner, day("2026-01-15"), day("2026-03-10"), GranularityMonth, Filter{})
	require.NoError(t, err)
	require.Len(t, points, 3)
	require.Equal(t, day("2026-01-01"), points[0].Bucket)
	require.Equal(t, int64(3000), points[0].ExpenseCents)
	require.Zero(t, points[1].ExpenseCents)
	require.Equal(t, int64(4000), points[2].ExpenseCents)
}

func TestTrends_RejectsBadInput(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)

	_, err := env.reports.Trends(ctx, testOwner, day("2026-06-01"), day("2026-06-07"), Granularity("hour"), Filter{})
	require.Error(t, err)

	_, err = env.reports.Trends(ctx, testOwner, day("2026-06-07"), day("2026-06-01"), GranularityDay, Filter{})
	require.Error(t, err)
}

func TestPatrimony_TransfersAreNeutral(t *testing.T) {
	t.Parallel()
	env, ctx := setupServiceTest(t)
	checking := env.mustAccount(t, ctx, "Everyday", repository.AccountChecking, nil)
	savings := env.mustAccount(t, ctx, "Rainy Day", repository.AccountChecking, nil)

	env.mustEntry(t, ctx, checking.ID, "2025-12-20", 5000, "OPENING")
	env.mustEntry(t, ctx, checking.ID, "2026-01-05", 100000, "PAYROLL")
	env.mustEntry(t, ctx, checking.ID, "2026-01-10", -30000, "TO SAVINGS")
	env.mustEntry(t, ctx, savings.ID, "2026-01-10", 30000, "FROM EVERYDAY")

	_, err := env.matcher.Match(ctx, testOwner)
	require.NoError(t, err)

	p, err := env.reports.Patrimony(ctx, testOwner, day("2026-01-01"), day("2026-01-15"), Filter{})
	require.NoError(t, err)

	require.Equal(t, int64(5000), p.BaselineCents)
	require.Len(t, p.Points, 15)
	require.Equal(t, day("2026-01-01"), p.Points[0].Date)
	require.Equal(t, int64(5000), p.Points[0].BalanceCents)
	require.Equal(t, int64(105000), p.Points[4].BalanceCents, "payroll lands on the 5th")
	require.Equal(t, int64(105000), p.Points[14].BalanceCents, "moving money between accounts changes nothing")

	byAccount := make(map[string]int64, len(p.Positions))
	for _, pos := range p.Positions {
		byAccount[pos.Account.ID] = pos.BalanceCents
	}
	require.Equal(t, int64(75000), byAccount[checking.ID])
	require.Equal(t, int64(30000), byAccount[savings.ID])
}
