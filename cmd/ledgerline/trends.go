package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/service"
)

// trendsCmd prints a bucketed income/expense series.
type trendsCmd struct {
	from        string
	to          string
	granularity string
	filterFlags
}

func (*trendsCmd) Name() string     { return "trends" }
func (*trendsCmd) Synopsis() string { return "bucketed income and expense over a period" }
func (*trendsCmd) Usage() string {
	return `ledgerline trends [-granularity day|week|month] [-from ...] [-to ...] [filters]

  Buckets the period. Every bucket is printed, including empty ones, so the
  series always spans the whole range.
`
}

func (c *trendsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "range start, or a YYYY-MM month")
	f.StringVar(&c.to, "to", "", "range end")
	f.StringVar(&c.granularity, "granularity", "day", "bucket size: day, week or month")
	c.register(f)
}

func (c *trendsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	series, err := a.Reports.Trends(ctx, a.owner(), from, to, service.Granularity(c.granularity), c.filter())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	currency := a.Config.Import.DefaultCurrency
	rows := make([][]string, 0, len(series))
	for _, p := range series {
		rows = append(rows, []string{
			formatDay(p.Bucket),
			stylePositive.Render(formatMoney(p.IncomeCents, currency)),
			styleNegative.Render(formatMoney(p.ExpenseCents, currency)),
			signedMoney(p.NetCents, currency),
		})
	}
	fmt.Print(renderTable([]string{"BUCKET", "INCOME", "EXPENSE", "NET"}, rows))
	return subcommands.ExitSuccess
}
