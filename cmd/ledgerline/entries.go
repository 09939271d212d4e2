package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

// entriesCmd lists ledger entries.
type entriesCmd struct {
	from         string
	to           string
	account      string
	typ          string
	category     string
	search       string
	excludedOnly bool
	limit        int
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "list ledger entries" }
func (*entriesCmd) Usage() string {
	return `ledgerline entries [-from YYYY-MM-DD|-from YYYY-MM] [-to YYYY-MM-DD] [-account <id>] [-type income|expense|transfer] [-category <name>] [-search <text>] [-excluded-only] [-limit N]

  Lists entries in the range, newest first. Defaults to the current month.
`
}

func (c *entriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "range start, or a YYYY-MM month")
	f.StringVar(&c.to, "to", "", "range end")
	f.StringVar(&c.account, "account", "", "only this account id")
	f.StringVar(&c.typ, "type", "", "only this entry type")
	f.StringVar(&c.category, "category", "", "only this category")
	f.StringVar(&c.search, "search", "", "match against the normalized description")
	f.BoolVar(&c.excludedOnly, "excluded-only", false, "only excluded entries")
	f.IntVar(&c.limit, "limit", 50, "max rows to print, 0 for all")
}

func (c *entriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	entries, err := a.Entries.List(ctx, a.owner(), repository.EntryFilters{
		AccountID:    c.account,
		Type:         c.typ,
		Category:     c.category,
		Search:       c.search,
		ExcludedOnly: c.excludedOnly,
		From:         from,
		To:           to,
	})
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(entries) == 0 {
		fmt.Println(styleDim.Render("no entries in range"))
		return subcommands.ExitSuccess
	}

	currency := accountCurrencies(ctx, a)

	total := len(entries)
	if c.limit > 0 && total > c.limit {
		entries = entries[:c.limit]
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		flags := ""
		if e.TransferLinkID != nil {
			flags += "linked "
		}
		if e.Excluded {
			flags += "excluded"
		}
		category := ""
		if e.Category != nil {
			category = *e.Category
		}
		rows = append(rows, []string{
			e.ID[:8],
			formatDay(e.PostedAt),
			signedMoney(e.AmountCents, currency(e.AccountID)),
			e.Type,
			e.Description,
			category,
			styleDim.Render(flags),
		})
	}
	fmt.Print(renderTable([]string{"ID", "DATE", "AMOUNT", "TYPE", "DESCRIPTION", "CATEGORY", ""}, rows))
	if len(entries) < total {
		fmt.Println(styleDim.Render(fmt.Sprintf("showing %d of %d, raise -limit for more", len(entries), total)))
	}
	return subcommands.ExitSuccess
}

// accountCurrencies resolves an account's display currency, falling back to
// the configured default.
func accountCurrencies(ctx context.Context, a *app) func(accountID string) string {
	byID := map[string]string{}
	if accounts, err := a.Accounts.List(ctx, a.owner()); err == nil {
		for _, acct := range accounts {
			byID[acct.ID] = acct.Currency
		}
	}
	return func(accountID string) string {
		if cur, ok := byID[accountID]; ok && cur != "" {
			return cur
		}
		return a.Config.Import.DefaultCurrency
	}
}
