// Package statement turns raw bank and card statement exports into canonical
// rows ready for the ledger, with a per-row diagnostic trail. It is pure:
// nothing here touches storage.
package statement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// Row is one normalized statement line. AmountCents is signed, negative for
// outflows. BalanceAfter is statement metadata and never becomes a ledger row.
type Row struct {
	Line         int
	PostedAt     time.Time
	AmountCents  int64
	Description  string
	TypeHint     string // "income" or "expense" when the file carries a type column
	AccountHint  string
	BalanceAfter *int64
}

// Status classifies a row outcome.
type Status string

const (
	StatusOK      Status = "ok"
	StatusIgnored Status = "ignored"
	StatusError   Status = "error"
)

// Reason explains a non-ok outcome.
type Reason string

const (
	ReasonMissingDate        Reason = "missing_date"
	ReasonMissingDescription Reason = "missing_description"
	ReasonMissingAmount      Reason = "missing_amount"
	ReasonInvalidAmount      Reason = "invalid_amount"
	ReasonInvalidDate        Reason = "invalid_date"
	ReasonIgnoredBalanceRow  Reason = "ignored_balance_row"
	ReasonZeroAmount         Reason = "zero_amount"
	ReasonInvalidRow         Reason = "invalid_normalized_row"
	ReasonRowParseError      Reason = "row_parse_error"
)

// RowOutcome is the diagnostic for exactly one data row. Row is set only
// when Status is ok.
type RowOutcome struct {
	Line   int
	Status Status
	Reason Reason
	Row    *Row
	Raw    []string
}

// Report tallies outcomes for the whole file.
type Report struct {
	OK       int
	Ignored  int
	Errors   int
	ByReason map[Reason]int
}

func (r *Report) add(o RowOutcome) {
	switch o.Status {
	case StatusOK:
		r.OK++
	case StatusIgnored:
		r.Ignored++
	case StatusError:
		r.Errors++
	}
	if o.Reason != "" {
		if r.ByReason == nil {
			r.ByReason = map[Reason]int{}
		}
		r.ByReason[o.Reason]++
	}
}

// Result is the full normalization output.
type Result struct {
	Encoding  Encoding
	Delimiter rune
	Columns   []string
	Mapping   Mapping
	Rows      []RowOutcome
	Report    Report
}

// OkRows returns just the canonical rows, in file order.
func (r *Result) OkRows() []Row {
	out := make([]Row, 0, r.Report.OK)
	for _, o := range r.Rows {
		if o.Status == StatusOK && o.Row != nil {
			out = append(out, *o.Row)
		}
	}
	return out
}

// Options overrides pieces of detection the caller already knows.
// Zero values mean detect.
type Options struct {
	Delimiter rune
	HeaderRow int // 1-based position of the header row; 0 detects
	Mapping   *Mapping
}

// Normalize decodes, sniffs and converts a whole statement file. File-level
// failures (no rows, no usable header, no mappable columns) return an error;
// everything row-level lands in the outcomes instead.
func Normalize(raw []byte, opts Options) (*Result, error) {
	text, enc := Decode(raw)

	delim := opts.Delimiter
	if delim == 0 {
		delim = DetectDelimiter(text)
	}
	records := SplitRecords(text, delim)
	if len(records) == 0 {
		return nil, errors.New("statement contains no rows")
	}

	headerIdx := opts.HeaderRow - 1
	if opts.HeaderRow <= 0 {
		headerIdx = LocateHeader(records)
	}
	if headerIdx < 0 || headerIdx >= len(records) || records[headerIdx].Err != nil {
		return nil, fmt.Errorf("no usable header row (index %d)", headerIdx)
	}
	header := records[headerIdx].Fields
	columns := DedupeColumns(header)

	var mapping Mapping
	if opts.Mapping != nil {
		mapping = *opts.Mapping
	} else {
		mapping = SuggestMapping(columns)
	}
	if err := mapping.Validate(len(columns)); err != nil {
		return nil, err
	}

	data := records[headerIdx+1:]
	style := electNumberStyle(data, mapping)
	layout := electDateLayout(data, mapping)

	res := &Result{
		Encoding:  enc,
		Delimiter: delim,
		Columns:   columns,
		Mapping:   mapping,
		Report:    Report{ByReason: map[Reason]int{}},
	}
	for _, rec := range data {
		if rec.Err == nil && isRepeatedHeader(header, rec.Fields) {
			continue
		}
		outcome := convertRow(rec, mapping, style, layout)
		res.Report.add(outcome)
		res.Rows = append(res.Rows, outcome)
	}
	return res, nil
}

const styleSampleLimit = 50

func electNumberStyle(data []RawRecord, m Mapping) NumberStyle {
	var samples []string
	cols := []int{m.AmountCol, m.DebitCol, m.CreditCol}
	for _, rec := range data {
		if rec.Err != nil {
			continue
		}
		for _, col := range cols {
			if v := cellAt(rec.Fields, col); v != "" {
				samples = append(samples, v)
			}
		}
		if len(samples) >= styleSampleLimit {
			break
		}
	}
	return DetectNumberStyle(samples)
}

func electDateLayout(data []RawRecord, m Mapping) string {
	var samples []string
	for _, rec := range data {
		if rec.Err != nil {
			continue
		}
		if v := cellAt(rec.Fields, m.DateCol); v != "" {
			samples = append(samples, v)
		}
		if len(samples) >= styleSampleLimit {
			break
		}
	}
	return DetectDateLayout(samples)
}

func convertRow(rec RawRecord, m Mapping, style NumberStyle, layout string) RowOutcome {
	if rec.Err != nil {
		return RowOutcome{Line: rec.Line, Status: StatusError, Reason: ReasonRowParseError}
	}
	out := RowOutcome{Line: rec.Line, Raw: rec.Fields}

	desc := cellAt(rec.Fields, m.DescCol)
	if isBalanceRow(desc) {
		out.Status, out.Reason = StatusIgnored, ReasonIgnoredBalanceRow
		return out
	}

	dateRaw := cellAt(rec.Fields, m.DateCol)
	if dateRaw == "" {
		out.Status, out.Reason = StatusError, ReasonMissingDate
		return out
	}
	if desc == "" {
		out.Status, out.Reason = StatusError, ReasonMissingDescription
		return out
	}

	cents, reason := resolveAmount(rec.Fields, m, style)
	if reason != "" {
		status := StatusError
		if reason == ReasonZeroAmount {
			status = StatusIgnored
		}
		out.Status, out.Reason = status, reason
		return out
	}

	posted, err := ParseDateCell(dateRaw, layout)
	if err != nil {
		out.Status, out.Reason = StatusError, ReasonInvalidDate
		return out
	}

	row := Row{
		Line:        rec.Line,
		PostedAt:    posted,
		AmountCents: cents,
		Description: desc,
		AccountHint: cellAt(rec.Fields, m.AccountCol),
	}
	row.TypeHint = typeHint(cellAt(rec.Fields, m.TypeCol))
	switch {
	case row.TypeHint == "expense" && row.AmountCents > 0:
		row.AmountCents = -row.AmountCents
	case row.TypeHint == "income" && row.AmountCents < 0:
		row.AmountCents = -row.AmountCents
	}
	if raw := cellAt(rec.Fields, m.BalanceCol); raw != "" {
		if bal, err := ParseAmountCents(raw, style); err == nil {
			row.BalanceAfter = &bal
		}
	}
	if err := row.validate(); err != nil {
		out.Status, out.Reason = StatusError, ReasonInvalidRow
		return out
	}

	out.Status = StatusOK
	out.Row = &row
	return out
}

// resolveAmount produces the signed amount from either the single amount
// column or the debit/credit pair. A populated debit cell means outflow.
func resolveAmount(fields []string, m Mapping, style NumberStyle) (int64, Reason) {
	if m.AmountCol >= 0 {
		raw := cellAt(fields, m.AmountCol)
		if raw == "" {
			return 0, ReasonMissingAmount
		}
		cents, err := ParseAmountCents(raw, style)
		if err != nil {
			return 0, ReasonInvalidAmount
		}
		if cents == 0 {
			return 0, ReasonZeroAmount
		}
		return cents, ""
	}

	debitRaw := cellAt(fields, m.DebitCol)
	creditRaw := cellAt(fields, m.CreditCol)
	if debitRaw == "" && creditRaw == "" {
		return 0, ReasonMissingAmount
	}
	var debit, credit int64
	var err error
	if debitRaw != "" {
		if debit, err = ParseAmountCents(debitRaw, style); err != nil {
			return 0, ReasonInvalidAmount
		}
	}
	if creditRaw != "" {
		if credit, err = ParseAmountCents(creditRaw, style); err != nil {
			return 0, ReasonInvalidAmount
		}
	}
	cents := abs64(credit) - abs64(debit)
	if cents == 0 {
		return 0, ReasonZeroAmount
	}
	return cents, ""
}

func (r Row) validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("empty description")
	}
	if y := r.PostedAt.Year(); y < 1950 || y > 2100 {
		return fmt.Errorf("implausible year %d", y)
	}
	return nil
}

var balanceMarkers = []string{
	"saldo anterior", "saldo inicial", "saldo final", "saldo atual", "saldo do dia",
	"opening balance", "closing balance", "balance forward", "balance brought forward",
	"previous balance", "carried forward", "a transportar",
}

// isBalanceRow recognizes carry-forward and summary marker rows that describe
// the statement itself rather than a movement.
func isBalanceRow(desc string) bool {
	folded := textnorm.Fold(desc)
	if folded == "" {
		return false
	}
	for _, marker := range balanceMarkers {
		if folded == marker || strings.HasPrefix(folded, marker+" ") {
			return true
		}
	}
	return false
}

func typeHint(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "c", "cr", "credit", "credito", "crédito", "deposit", "entrada", "haber":
		return "income"
	case "d", "dr", "db", "debit", "debito", "débito", "withdrawal", "saida", "saída", "cargo":
		return "expense"
	}
	return ""
}

func cellAt(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[idx])
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
