package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/demo"
)

// seedCmd loads sample data so the tool can be explored without a real
// statement file.
type seedCmd struct{}

func (*seedCmd) Name() string     { return "seed" }
func (*seedCmd) Synopsis() string { return "load three months of sample data" }
func (*seedCmd) Usage() string {
	return `ledgerline seed

  Creates demo accounts and imports three months of sample statements, then
  runs a matching pass over them. Running it again changes nothing.
`
}
func (*seedCmd) SetFlags(*flag.FlagSet) {}

func (c *seedCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res, err := demo.Seed(ctx, a.owner(), a.Config.Import.DefaultCurrency, demo.Services{
		Institutions: a.Institutions,
		Accounts:     a.Accounts,
		Importer:     a.Importer,
		Matcher:      a.Matcher,
	})
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if res.AlreadySeeded {
		fmt.Println("sample data already loaded")
		return subcommands.ExitSuccess
	}
	fmt.Printf("seeded %d entries, matched %d transfers and %d card payments, queued %d suggestions\n",
		res.Imported, res.Matched, res.CardPayments, res.Suggested)
	fmt.Println(styleDim.Render("try: ledgerline summary, ledgerline recurring, ledgerline inbox"))
	return subcommands.ExitSuccess
}
