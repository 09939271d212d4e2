package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// inboxCmd lists pending transfer suggestions awaiting a decision.
type inboxCmd struct{}

func (*inboxCmd) Name() string     { return "inbox" }
func (*inboxCmd) Synopsis() string { return "list pending transfer suggestions" }
func (*inboxCmd) Usage() string {
	return `ledgerline inbox

  Shows suggested pairs the matcher was not sure about, typically transfers
  that lost a fee in transit. Decide with confirm or dismiss.
`
}
func (*inboxCmd) SetFlags(*flag.FlagSet) {}

func (c *inboxCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	items, err := a.Matcher.Inbox(ctx, a.owner())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(items) == 0 {
		fmt.Println(styleDim.Render("inbox empty"))
		return subcommands.ExitSuccess
	}

	currency := accountCurrencies(ctx, a)
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		confidence := ""
		if it.Link.Confidence != nil {
			confidence = fmt.Sprintf("%.0f%%", *it.Link.Confidence*100)
		}
		fee := ""
		if it.Link.FeeDeltaCents != nil {
			fee = formatMoney(*it.Link.FeeDeltaCents, currency(it.Out.AccountID))
		}
		rows = append(rows, []string{
			it.Link.ID[:8],
			formatDay(it.Out.PostedAt),
			it.Out.Description,
			signedMoney(it.Out.AmountCents, currency(it.Out.AccountID)),
			it.In.Description,
			signedMoney(it.In.AmountCents, currency(it.In.AccountID)),
			fee,
			confidence,
		})
	}
	fmt.Print(renderTable([]string{"ID", "DATE", "OUT", "AMOUNT", "IN", "AMOUNT", "FEE", "CONF"}, rows))
	fmt.Println(styleDim.Render("decide with: ledgerline confirm <id> | ledgerline dismiss <id>"))
	return subcommands.ExitSuccess
}

// confirmCmd accepts a pending suggestion.
type confirmCmd struct{}

func (*confirmCmd) Name() string     { return "confirm" }
func (*confirmCmd) Synopsis() string { return "accept a transfer suggestion" }
func (*confirmCmd) Usage() string {
	return `ledgerline confirm <link-id>

  Accepts the suggestion: both entries become transfer legs.
`
}
func (*confirmCmd) SetFlags(*flag.FlagSet) {}

func (c *confirmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return decide(ctx, f, "confirm")
}

// dismissCmd rejects a pending suggestion.
type dismissCmd struct{}

func (*dismissCmd) Name() string     { return "dismiss" }
func (*dismissCmd) Synopsis() string { return "reject a transfer suggestion" }
func (*dismissCmd) Usage() string {
	return `ledgerline dismiss <link-id>

  Rejects the suggestion. The pair is remembered and never offered again.
`
}
func (*dismissCmd) SetFlags(*flag.FlagSet) {}

func (c *dismissCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	return decide(ctx, f, "dismiss")
}

func decide(ctx context.Context, f *flag.FlagSet, verb string) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Println("exactly one link id expected")
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	id := resolveLinkID(ctx, a, f.Arg(0))
	if verb == "confirm" {
		err = a.Matcher.Confirm(ctx, a.owner(), id)
	} else {
		err = a.Matcher.Dismiss(ctx, a.owner(), id)
	}
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%sed\n", verb)
	return subcommands.ExitSuccess
}

// resolveLinkID lets the user pass the 8-char prefix the inbox prints.
func resolveLinkID(ctx context.Context, a *app, arg string) string {
	if len(arg) >= 36 {
		return arg
	}
	links, err := a.Transfers.ListPending(ctx, a.owner())
	if err != nil {
		return arg
	}
	for _, l := range links {
		if len(l.ID) >= len(arg) && l.ID[:len(arg)] == arg {
			return l.ID
		}
	}
	return arg
}
