package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&initCmd{}, "setup")
	commander.Register(&accountsCmd{}, "setup")
	commander.Register(&addAccountCmd{}, "setup")
	commander.Register(&seedCmd{}, "setup")
	commander.Register(&resetCmd{}, "setup")

	commander.Register(&importCmd{}, "ledger")
	commander.Register(&addCmd{}, "ledger")
	commander.Register(&entriesCmd{}, "ledger")

	commander.Register(&matchCmd{}, "matching")
	commander.Register(&inboxCmd{}, "matching")
	commander.Register(&confirmCmd{}, "matching")
	commander.Register(&dismissCmd{}, "matching")
	commander.Register(&unlinkCmd{}, "matching")

	commander.Register(&summaryCmd{}, "reports")
	commander.Register(&trendsCmd{}, "reports")
	commander.Register(&patrimonyCmd{}, "reports")
	commander.Register(&recurringCmd{}, "reports")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(int(commander.Execute(ctx)))
}
