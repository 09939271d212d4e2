package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/service"
)

// filterFlags are the slice-of-the-ledger flags every report shares.
type filterFlags struct {
	account      string
	typ          string
	category     string
	search       string
	excludedOnly bool
}

func (ff *filterFlags) register(f *flag.FlagSet) {
	f.StringVar(&ff.account, "account", "", "only this account id")
	f.StringVar(&ff.typ, "type", "", "only this entry type")
	f.StringVar(&ff.category, "category", "", "only this category")
	f.StringVar(&ff.search, "search", "", "match against the normalized description")
	f.BoolVar(&ff.excludedOnly, "excluded-only", false, "only excluded entries")
}

func (ff *filterFlags) filter() service.Filter {
	return service.Filter{
		AccountID:    ff.account,
		Type:         ff.typ,
		Category:     ff.category,
		Search:       ff.search,
		ExcludedOnly: ff.excludedOnly,
	}
}

// summaryCmd prints period totals with a previous-period comparison.
type summaryCmd struct {
	from string
	to   string
	filterFlags
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "income, expense and net for a period" }
func (*summaryCmd) Usage() string {
	return `ledgerline summary [-from YYYY-MM-DD|-from YYYY-MM] [-to YYYY-MM-DD] [filters]

  Totals the period and compares it with the equivalent preceding one.
  Defaults to the current month.
`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "range start, or a YYYY-MM month")
	f.StringVar(&c.to, "to", "", "range end")
	c.register(f)
}

func (c *summaryCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	from, to, err := parseRange(c.from, c.to)
	if err != nil {
		fail(err)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	s, err := a.Reports.Summary(ctx, a.owner(), from, to, c.filter())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	currency := a.Config.Import.DefaultCurrency
	fmt.Println(styleTitle.Render(fmt.Sprintf("%s to %s", formatDay(s.Current.From), formatDay(s.Current.To))))
	fmt.Printf("income   %s%s\n", stylePositive.Render(formatMoney(s.Current.IncomeCents, currency)), deltaSuffix(s.IncomeDeltaPct))
	fmt.Printf("expense  %s%s\n", styleNegative.Render(formatMoney(s.Current.ExpenseCents, currency)), deltaSuffix(s.ExpenseDeltaPct))
	fmt.Printf("net      %s\n", signedMoney(s.Current.NetCents, currency))
	if s.Current.ExcludedCents != 0 {
		fmt.Printf("excluded %s\n", styleDim.Render(formatMoney(s.Current.ExcludedCents, currency)))
	}
	fmt.Println(styleDim.Render(fmt.Sprintf("previous %s to %s: income %s, expense %s",
		formatDay(s.Previous.From), formatDay(s.Previous.To),
		formatMoney(s.Previous.IncomeCents, currency), formatMoney(s.Previous.ExpenseCents, currency))))
	return subcommands.ExitSuccess
}

func deltaSuffix(pct *float64) string {
	if pct == nil {
		return ""
	}
	return styleDim.Render(fmt.Sprintf("  %+.1f%% vs previous", *pct))
}
