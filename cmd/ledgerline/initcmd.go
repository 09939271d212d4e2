package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/config"
)

// initCmd writes a starter config file the user can edit.
type initCmd struct {
	dbPath   string
	owner    string
	currency string
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write a starter configuration file" }
func (*initCmd) Usage() string {
	return `ledgerline init [-db <path>] [-owner <id>] [-currency <code>]

  Writes the configuration file with defaults plus any overrides given here.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.dbPath, "db", "", "database file path")
	f.StringVar(&c.owner, "owner", "", "owner id all commands operate as")
	f.StringVar(&c.currency, "currency", "", "default currency code for new accounts")
}

func (c *initCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	if c.owner != "" {
		cfg.Owner.ID = c.owner
	}
	if c.currency != "" {
		cfg.Import.DefaultCurrency = c.currency
	}
	if err := config.Save(cfg); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %s\n", config.Path())
	return subcommands.ExitSuccess
}
