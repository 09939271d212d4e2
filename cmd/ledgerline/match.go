package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

// matchCmd runs a transfer matching pass.
type matchCmd struct{}

func (*matchCmd) Name() string     { return "match" }
func (*matchCmd) Synopsis() string { return "pair outgoing and incoming entries into transfers" }
func (*matchCmd) Usage() string {
	return `ledgerline match

  Scans unlinked entries across accounts. Exact pairs are linked immediately,
  near-miss pairs land in the inbox as suggestions. Safe to re-run.
`
}
func (*matchCmd) SetFlags(*flag.FlagSet) {}

func (c *matchCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	res, err := a.Matcher.Match(ctx, a.owner())
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("matched %d transfers, %d card payments, queued %d suggestions\n",
		res.Matched, res.CardPayments, res.Suggested)
	if res.Suggested > 0 {
		fmt.Println(styleDim.Render("review suggestions with: ledgerline inbox"))
	}
	return subcommands.ExitSuccess
}

// unlinkCmd breaks the confirmed transfer link an entry is part of.
type unlinkCmd struct{}

func (*unlinkCmd) Name() string     { return "unlink" }
func (*unlinkCmd) Synopsis() string { return "break the transfer link an entry participates in" }
func (*unlinkCmd) Usage() string {
	return `ledgerline unlink <entry-id>

  Removes the confirmed link touching the entry. Both sides revert to the
  income or expense classification they had before matching.
`
}
func (*unlinkCmd) SetFlags(*flag.FlagSet) {}

func (c *unlinkCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Println("exactly one entry id expected")
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.Matcher.Unlink(ctx, a.owner(), f.Arg(0)); err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	fmt.Println("unlinked")
	return subcommands.ExitSuccess
}
