package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// recurringCmd lists detected periodic charges.
type recurringCmd struct{}

func (*recurringCmd) Name() string     { return "recurring" }
func (*recurringCmd) Synopsis() string { return "detect periodic merchant charges" }
func (*recurringCmd) Usage() string {
	return `ledgerline recurring

  Flags merchants that charge a steady amount around the same day each
  month. Installment plans are left out.
`
}
func (*recurringCmd) SetFlags(*flag.FlagSet) {}

func (c *recurringCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	signals, err := a.Recurring.Detect(ctx, a.owner())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(signals) == 0 {
		fmt.Println(styleDim.Render("nothing looks recurring yet"))
		return subcommands.ExitSuccess
	}

	currency := a.Config.Import.DefaultCurrency
	rows := make([][]string, 0, len(signals))
	for _, s := range signals {
		rows = append(rows, []string{
			s.DisplayName,
			styleNegative.Render(formatMoney(s.MonthlyCostCents, currency)),
			fmt.Sprintf("%d over %d months", s.Occurrences, s.MonthsSpanned),
			fmt.Sprintf("day %d", s.MedianDay),
			formatDay(s.NextExpected),
		})
	}
	fmt.Print(renderTable([]string{"MERCHANT", "MONTHLY", "SEEN", "USUALLY", "NEXT EXPECTED"}, rows))
	return subcommands.ExitSuccess
}
