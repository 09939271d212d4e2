package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// patrimonyCmd prints the running net position over a period.
type patrimonyCmd struct {
	from string
	to   string
	filterFlags
}

func (*patrimonyCmd) Name() string     { return "patrimony" }
func (*patrimonyCmd) Synopsis() string { return "running balance over a period" }
func (*patrimonyCmd) Usage() string {
	return `ledgerline patrimony [-from ...] [-to ...] [-account <id>]

  Charts the day-by-day net position, seeded from everything before the
  range. Internal transfers move money between accounts without changing
  the total.
`
}

func (c *patrimonyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "range start, or a YYYY-MM month")
	f.StringVar(&c.to, "to", "", "range end")
	c.register(f)
}

func (c *patrimonyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	p, err := a.Reports.Patrimony(ctx, a.owner(), from, to, c.filter())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	currency := a.Config.Import.DefaultCurrency
	fmt.Printf("baseline before %s: %s\n", formatDay(from), signedMoney(p.BaselineCents, currency))

	rows := make([][]string, 0, len(p.Points))
	for _, pt := range p.Points {
		rows = append(rows, []string{formatDay(pt.Date), signedMoney(pt.BalanceCents, currency)})
	}
	fmt.Print(renderTable([]string{"DATE", "BALANCE"}, rows))

	if len(p.Positions) > 0 {
		fmt.Println(styleTitle.Render("by account"))
		acctRows := make([][]string, 0, len(p.Positions))
		for _, pos := range p.Positions {
			acctRows = append(acctRows, []string{
				pos.Account.Name,
				pos.Account.Kind,
				signedMoney(pos.BalanceCents, pos.Account.Currency),
			})
		}
		fmt.Print(renderTable([]string{"ACCOUNT", "KIND", "BALANCE"}, acctRows))
	}
	return subcommands.ExitSuccess
}
