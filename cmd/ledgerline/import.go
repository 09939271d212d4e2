package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/subcommands"

	"github.com/lcrowe/ledgerline/internal/database/repository"
	"github.com/lcrowe/ledgerline/internal/service"
	"github.com/lcrowe/ledgerline/internal/statement"
)

// importCmd normalizes statement files and writes them to the ledger.
type importCmd struct {
	institution string
	kind        string
	account     string
	card        string
	delimiter   string
	headerRow   int
	dryRun      bool
	watch       bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import statement files into the ledger" }
func (*importCmd) Usage() string {
	return `ledgerline import -institution <name> -account <id> [-kind bank|card] [-card <id>] [-dry-run] <file>...
ledgerline import -institution <name> -account <id> -watch <dir>

  Normalizes each delimited statement file and writes its rows. With -dry-run
  the file is only analyzed and the per-row diagnostics are printed. With
  -watch, new files dropped into the directory are imported as they appear;
  re-imports are harmless because a known file hash short-circuits.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.institution, "institution", "", "institution the statements belong to, created if new")
	f.StringVar(&c.kind, "kind", "bank", "statement kind: bank or card")
	f.StringVar(&c.account, "account", "", "default account id for bank statement rows")
	f.StringVar(&c.card, "card", "", "default credit account id for card statement rows")
	f.StringVar(&c.delimiter, "delimiter", "", "field delimiter, detected when empty")
	f.IntVar(&c.headerRow, "header-row", 0, "1-based header row position, detected when 0")
	f.BoolVar(&c.dryRun, "dry-run", false, "analyze only, write nothing")
	f.BoolVar(&c.watch, "watch", false, "treat the argument as a directory and import files as they appear")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Println("no input given")
		return subcommands.ExitUsageError
	}
	if c.institution == "" {
		fmt.Println("-institution is required")
		return subcommands.ExitUsageError
	}
	kind := repository.BatchBankStatement
	switch c.kind {
	case "bank":
	case "card":
		kind = repository.BatchCardStatement
	default:
		fmt.Printf("unknown kind %q, want bank or card\n", c.kind)
		return subcommands.ExitUsageError
	}

	a, err := newApp()
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.watch {
		if err := c.watchDir(ctx, a, kind, f.Arg(0)); err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	for _, path := range f.Args() {
		if err := c.importFile(ctx, a, kind, path); err != nil {
			fail(fmt.Errorf("%s: %w", path, err))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}

func (c *importCmd) importFile(ctx context.Context, a *app, kind, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	opts := statement.Options{HeaderRow: c.headerRow}
	if c.delimiter != "" {
		opts.Delimiter = rune(c.delimiter[0])
	}
	res, err := statement.Normalize(raw, opts)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", styleTitle.Render(filepath.Base(path)),
		styleDim.Render(fmt.Sprintf("(%s, delimiter %q)", res.Encoding, res.Delimiter)))
	printReport(res)

	if c.dryRun {
		printRowDiagnostics(res)
		return nil
	}

	rows := res.OkRows()
	req := service.ImportRequest{
		OwnerID:              a.owner(),
		InstitutionName:      c.institution,
		Kind:                 kind,
		FileName:             filepath.Base(path),
		FileHash:             service.HashContent(raw),
		DefaultAccountID:     c.account,
		DefaultCardAccountID: c.card,
		Rows:                 make([]service.ImportRow, 0, len(rows)),
	}
	for _, r := range rows {
		req.Rows = append(req.Rows, service.ImportRow{
			Line:        r.Line,
			PostedAt:    r.PostedAt,
			AmountCents: r.AmountCents,
			Description: r.Description,
			AccountHint: r.AccountHint,
		})
	}

	result, err := a.Importer.Import(ctx, req)
	if err != nil {
		return err
	}
	if result.DuplicateImportSource {
		fmt.Println(styleWarn.Render("already imported, skipped (same file hash)"))
		return nil
	}
	fmt.Printf("imported %d, deduped %d\n", result.Imported, result.Deduped)
	return nil
}

func printReport(res *statement.Result) {
	fmt.Printf("rows: %d ok, %d ignored, %d errors\n",
		res.Report.OK, res.Report.Ignored, res.Report.Errors)
	if len(res.Report.ByReason) == 0 {
		return
	}
	reasons := make([]string, 0, len(res.Report.ByReason))
	for reason := range res.Report.ByReason {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, res.Report.ByReason[statement.Reason(reason)]))
	}
	fmt.Println(styleDim.Render("  " + strings.Join(parts, " ")))
}

func printRowDiagnostics(res *statement.Result) {
	var rows [][]string
	for _, o := range res.Rows {
		switch o.Status {
		case statement.StatusOK:
			r := o.Row
			rows = append(rows, []string{
				fmt.Sprintf("%d", o.Line), string(o.Status), "",
				formatDay(r.PostedAt), fmt.Sprintf("%d", r.AmountCents), r.Description,
			})
		default:
			rows = append(rows, []string{
				fmt.Sprintf("%d", o.Line), string(o.Status), string(o.Reason),
				"", "", strings.Join(o.Raw, " | "),
			})
		}
	}
	fmt.Print(renderTable([]string{"LINE", "STATUS", "REASON", "DATE", "CENTS", "DESCRIPTION"}, rows))
}

// watchDir imports statement files as they land in dir. Events are debounced
// so a file still being written is picked up once, when it goes quiet.
func (c *importCmd) watchDir(ctx context.Context, a *app, kind, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	a.Log.Info().Str("dir", dir).Msg("watching for statements")

	pending := map[string]time.Time{}
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isStatementFile(ev.Name) {
				continue
			}
			pending[ev.Name] = time.Now()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			a.Log.Warn().Err(err).Msg("watch error")
		case <-ticker.C:
			now := time.Now()
			for name, stamp := range pending {
				if now.Sub(stamp) < 500*time.Millisecond {
					continue
				}
				delete(pending, name)
				if err := c.importFile(ctx, a, kind, name); err != nil {
					a.Log.Error().Err(err).Str("file", name).Msg("import failed")
				}
			}
		}
	}
}

func isStatementFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".txt":
		return true
	}
	return false
}
