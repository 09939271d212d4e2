package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

// Reports answers the read-side questions: period summaries, trend series and
// the running patrimony curve. Every method honors the same filter set.
type Reports struct {
	Entries  *repository.EntryRepo
	Accounts *repository.AccountRepo
	Log      zerolog.Logger
}

// Filter narrows any report to a slice of the ledger.
type Filter struct {
	AccountID    string
	Type         string
	Category     string
	Search       string
	ExcludedOnly bool
}

func (f Filter) entryFilters(from, to time.Time) repository.EntryFilters {
	return repository.EntryFilters{
		AccountID:    f.AccountID,
		Type:         f.Type,
		Category:     f.Category,
		Search:       f.Search,
		ExcludedOnly: f.ExcludedOnly,
		From:         from,
		To:           to,
	}
}

// PeriodTotals holds one period's aggregates. Income and expense are positive
// magnitudes; net is income minus expense.
type PeriodTotals struct {
	From          time.Time
	To            time.Time
	IncomeCents   int64
	ExpenseCents  int64
	NetCents      int64
	ExcludedCents int64
}

// Summary compares the requested period against the one before it.
type Summary struct {
	Current  PeriodTotals
	Previous PeriodTotals

	// Pct deltas vs the previous period, nil when the previous value is zero.
	IncomeDeltaPct  *float64
	ExpenseDeltaPct *float64
}

// Summary totals the period and the equivalent previous period. Ranges that
// cover whole calendar months step back by months so February is compared
// against January rather than against a 28-day slice of it.
func (r *Reports) Summary(ctx context.Context, ownerID string, from, to time.Time, f Filter) (*Summary, error) {
	cur, err := r.periodTotals(ctx, ownerID, from, to, f)
	if err != nil {
		return nil, err
	}

	prevFrom, prevTo := previousPeriod(from, to)
	prev, err := r.periodTotals(ctx, ownerID, prevFrom, prevTo, f)
	if err != nil {
		return nil, err
	}

	return &Summary{
		Current:         cur,
		Previous:        prev,
		IncomeDeltaPct:  pctChange(cur.IncomeCents, prev.IncomeCents),
		ExpenseDeltaPct: pctChange(cur.ExpenseCents, prev.ExpenseCents),
	}, nil
}

func (r *Reports) periodTotals(ctx context.Context, ownerID string, from, to time.Time, f Filter) (PeriodTotals, error) {
	t, err := r.Entries.SumTotals(ctx, ownerID, f.entryFilters(from, to))
	if err != nil {
		return PeriodTotals{}, fmt.Errorf("sum totals: %w", err)
	}
	income := t.IncomeCents
	expense := -t.ExpenseCents
	return PeriodTotals{
		From:          from,
		To:            to,
		IncomeCents:   income,
		ExpenseCents:  expense,
		NetCents:      income - expense,
		ExcludedCents: t.ExcludedCents,
	}, nil
}

// previousPeriod mirrors a date range one period back. Month-aligned ranges
// shift by whole months, anything else by their day count.
func previousPeriod(from, to time.Time) (time.Time, time.Time) {
	if from.Day() == 1 && isMonthEnd(to) {
		months := monthSpan(from, to)
		return from.AddDate(0, -months, 0), from.AddDate(0, 0, -1)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	return from.AddDate(0, 0, -days), to.AddDate(0, 0, -days)
}

func isMonthEnd(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}

func monthSpan(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month()) + 1
}

func pctChange(cur, prev int64) *float64 {
	if prev == 0 {
		return nil
	}
	p := float64(cur-prev) / float64(abs64(prev)) * 100
	return &p
}

// Granularity selects the trend bucket size.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Bucket       time.Time
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
}

// Trends buckets the period by day, week or month. Every bucket in the range
// is present even when empty, so a 7-day series over silence is seven zero
// points. Weeks start on Monday, months on the 1st.
func (r *Reports) Trends(ctx context.Context, ownerID string, from, to time.Time, g Granularity, f Filter) ([]TrendPoint, error) {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
	default:
		return nil, fmt.Errorf("unknown granularity %q", g)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s precedes start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	days, err := r.Entries.SumByDay(ctx, ownerID, f.entryFilters(from, to))
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}

	series := emptySeries(from, to, g)
	index := make(map[time.Time]int, len(series))
	for i, p := range series {
		index[p.Bucket] = i
	}
	for _, d := range days {
		i, ok := index[bucketStart(d.Date, g)]
		if !ok {
			continue
		}
		series[i].IncomeCents += d.IncomeCents
		series[i].ExpenseCents += -d.ExpenseCents
		series[i].NetCents += d.NetCents
	}
	return series, nil
}

func emptySeries(from, to time.Time, g Granularity) []TrendPoint {
	var out []TrendPoint
	last := bucketStart(to, g)
	for b := bucketStart(from, g); !b.After(last); b = nextBucket(b, g) {
		out = append(out, TrendPoint{Bucket: b})
	}
	return out
}

func bucketStart(t time.Time, g Granularity) time.Time {
	t = civilDay(t)
	switch g {
	case GranularityWeek:
		back := (int(t.Weekday()) + 6) % 7
		return t.AddDate(0, 0, -back)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return t
	}
}

func nextBucket(t time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PatrimonyPoint is the closing balance at the end of one day.
type PatrimonyPoint struct {
	Date         time.Time
	BalanceCents int64
}

// AccountPosition is one account's closing balance at the end of the range.
type AccountPosition struct {
	Account      repository.Account
	BalanceCents int64
}

// Patrimony is the running net position over a range.
type Patrimony struct {
	BaselineCents int64
	Points        []PatrimonyPoint
	Positions     []AccountPosition
}

// Patrimony charts total position day by day. The baseline is everything
// before the range, and confirmed transfer pairs cancel out inside it since
// both signed legs are counted.
func (r *Reports) Patrimony(ctx context.Context, ownerID string, from, to time.Time, f Filter) (*Patrimony, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s precedes start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	baseline, err := r.Entries.SumBefore(ctx, ownerID, from, f.AccountID)
	if err != nil {
		return nil, fmt.Errorf("sum baseline: %w", err)
	}

	days, err := r.Entries.SumByDay(ctx, ownerID, f.entryFilters(from, to))
	if err != nil {
		return nil, fmt.Errorf("sum by day: %w", err)
	}
	netByDay := make(map[time.Time]int64, len(days))
	for _, d := range days {
		netByDay[civilDay(d.Date)] = d.NetCents
	}

	var points []PatrimonyPoint
	running := baseline
	for day := civilDay(from); !day.After(civilDay(to)); day = day.AddDate(0, 0, 1) {
		running += netByDay[day]
		points = append(points, PatrimonyPoint{Date: day, BalanceCents: running})
	}

	positions, err := r.accountPositions(ctx, ownerID, to, f.AccountID)
	if err != nil {
		return nil, err
	}

	return &Patrimony{BaselineCents: baseline, Points: points, Positions: positions}, nil
}

func (r *Reports) accountPositions(ctx context.Context, ownerID string, upTo time.Time, accountID string) ([]AccountPosition, error) {
	balances, err := r.Entries.BalancesByAccount(ctx, ownerID, upTo)
	if err != nil {
		return nil, fmt.Errorf("balances by account: %w", err)
	}
	accounts, err := r.Accounts.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	byID := make(map[string]repository.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	var out []AccountPosition
	for _, b := range balances {
		if accountID != "" && b.AccountID != accountID {
			continue
		}
		acct, ok := byID[b.AccountID]
		if !ok {
			continue
		}
		out = append(out, AccountPosition{Account: acct, BalanceCents: b.BalanceCents})
	}
	return out, nil
}
