package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/google/uuid"

	"github.com/lcrowe/ledgerline/internal/database/repository"
)

// accountsCmd lists accounts with their institutions.
type accountsCmd struct{}

func (*accountsCmd) Name() string     { return "accounts" }
func (*accountsCmd) Synopsis() string { return "list accounts" }
func (*accountsCmd) Usage() string {
	return `ledgerline accounts

  Lists every account with its kind, institution and currency.
`
}
func (*accountsCmd) SetFlags(*flag.FlagSet) {}

func (c *accountsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	accounts, err := a.Accounts.List(ctx, a.owner())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(accounts) == 0 {
		fmt.Println(styleDim.Render("no accounts yet, create one with add-account"))
		return subcommands.ExitSuccess
	}

	institutions, err := a.Institutions.List(ctx, a.owner())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	instName := make(map[string]string, len(institutions))
	for _, inst := range institutions {
		instName[inst.ID] = inst.Name
	}
	acctName := make(map[string]string, len(accounts))
	for _, acct := range accounts {
		acctName[acct.ID] = acct.Name
	}

	rows := make([][]string, 0, len(accounts))
	for _, acct := range accounts {
		parent := ""
		if acct.ParentAccountID != nil {
			parent = acctName[*acct.ParentAccountID]
		}
		rows = append(rows, []string{acct.ID, acct.Name, acct.Kind, instName[acct.InstitutionID], acct.Currency, parent})
	}
	fmt.Print(renderTable([]string{"ID", "NAME", "KIND", "INSTITUTION", "CURRENCY", "SETTLES VIA"}, rows))
	return subcommands.ExitSuccess
}

// addAccountCmd creates an account, optionally tied to the checking account
// that settles its card bill.
type addAccountCmd struct {
	name        string
	kind        string
	institution string
	currency    string
	parent      string
}

func (*addAccountCmd) Name() string     { return "add-account" }
func (*addAccountCmd) Synopsis() string { return "create an account" }
func (*addAccountCmd) Usage() string {
	return `ledgerline add-account -name <name> -institution <name> [-kind checking|credit|cash|investment] [-currency <code>] [-parent <account-id>]

  Creates an account. A credit account with -parent names the account its
  card bill is paid from, which the matcher uses to spot card payments.
`
}

func (c *addAccountCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.name, "name", "", "account name")
	f.StringVar(&c.kind, "kind", repository.AccountChecking, "checking, credit, cash or investment")
	f.StringVar(&c.institution, "institution", "", "institution name, created if new")
	f.StringVar(&c.currency, "currency", "", "currency code, defaults to the configured one")
	f.StringVar(&c.parent, "parent", "", "settlement account id for a credit account")
}

func (c *addAccountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.name == "" || c.institution == "" {
		fmt.Println("both -name and -institution are required")
		return subcommands.ExitUsageError
	}
	switch c.kind {
	case repository.AccountChecking, repository.AccountCredit, repository.AccountCash, repository.AccountInvestment:
	default:
		fmt.Printf("unknown kind %q\n", c.kind)
		return subcommands.ExitUsageError
	}
	if c.parent != "" && c.kind != repository.AccountCredit {
		fmt.Println("-parent only applies to credit accounts")
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	inst, err := a.Institutions.Ensure(ctx, a.owner(), c.institution)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	var parentID *string
	if c.parent != "" {
		parent, err := a.Accounts.Get(ctx, a.owner(), c.parent)
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		if parent == nil {
			fmt.Printf("parent account %s not found\n", c.parent)
			return subcommands.ExitFailure
		}
		if parent.Kind == repository.AccountCredit {
			fmt.Println("a card bill cannot settle on another credit account")
			return subcommands.ExitFailure
		}
		parentID = &parent.ID
	}

	currency := c.currency
	if currency == "" {
		currency = a.Config.Import.DefaultCurrency
	}

	acct := repository.Account{
		ID:              uuid.NewString(),
		OwnerID:         a.owner(),
		InstitutionID:   inst.ID,
		Name:            c.name,
		Kind:            c.kind,
		Currency:        currency,
		ParentAccountID: parentID,
	}
	if err := a.Accounts.Insert(ctx, acct); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Created %s account %s (%s)\n", acct.Kind, acct.Name, acct.ID)
	return subcommands.ExitSuccess
}
