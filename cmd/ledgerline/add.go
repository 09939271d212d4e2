package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/service"
	"github.com/lcrowe/ledgerline/internal/statement"
)

// addCmd records a manual ledger entry.
type addCmd struct {
	account  string
	amount   string
	desc     string
	date     string
	category string
	excluded bool
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record a manual ledger entry" }
func (*addCmd) Usage() string {
	return `ledgerline add -account <id> -amount <value> -desc <text> [-date YYYY-MM-DD] [-category <name>] [-excluded]

  Records a hand-entered movement. Negative amounts are outflows. Credit
  accounts only accept imported or matched entries, never manual ones.
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account id")
	f.StringVar(&c.amount, "amount", "", "signed amount, e.g. -12.50")
	f.StringVar(&c.desc, "desc", "", "description")
	f.StringVar(&c.date, "date", "", "posted date, defaults to today")
	f.StringVar(&c.category, "category", "", "category name")
	f.BoolVar(&c.excluded, "excluded", false, "keep the entry out of totals")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" || c.amount == "" || c.desc == "" {
		fmt.Println("-account, -amount and -desc are required")
		return subcommands.ExitUsageError
	}

	cents, err := statement.ParseAmountCents(c.amount, statement.StyleDot)
	if err != nil {
		fail(fmt.Errorf("amount: %w", err))
		return subcommands.ExitUsageError
	}

	now := time.Now().UTC()
	postedAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if c.date != "" {
		if postedAt, err = parseDay(c.date); err != nil {
			fail(err)
			return subcommands.ExitUsageError
		}
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var category *string
	if c.category != "" {
		category = &c.category
	}

	entry, err := a.Importer.WriteManual(ctx, service.ManualEntry{
		OwnerID:     a.owner(),
		AccountID:   c.account,
		PostedAt:    postedAt,
		AmountCents: cents,
		Description: c.desc,
		Category:    category,
		Excluded:    c.excluded,
	})
	if errors.Is(err, service.ErrCreditAccountManualEntry) {
		fmt.Println(styleWarn.Render("credit accounts do not take manual entries, import a card statement instead"))
		return subcommands.ExitFailure
	}
	if errors.Is(err, service.ErrDuplicateEntry) {
		fmt.Println(styleWarn.Render("an identical entry already exists"))
		return subcommands.ExitFailure
	}
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s %s (%s)\n", entry.Description, formatMoney(entry.AmountCents, a.Config.Import.DefaultCurrency), entry.ID)
	return subcommands.ExitSuccess
}
