package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// resetCmd wipes all data for the configured owner.
type resetCmd struct {
	confirm bool
}

func (*resetCmd) Name() string     { return "reset" }
func (*resetCmd) Synopsis() string { return "delete every account, entry and link" }
func (*resetCmd) Usage() string {
	return `ledgerline reset -confirm

  Deletes all data owned by the configured owner: institutions, accounts,
  imported batches, ledger entries and transfer links. The database schema
  and the configuration file are kept. There is no undo.
`
}

func (c *resetCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.confirm, "confirm", false, "acknowledge that all data will be deleted")
}

func (c *resetCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if !c.confirm {
		fmt.Println("refusing to delete data without -confirm")
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.Maintenance.Reset(ctx, a.owner()); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println("all data removed")
	return subcommands.ExitSuccess
}
