package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha accents, rendered only when the terminal supports them.
var (
	styleTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7"))
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	styleDim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086"))
	stylePositive = lipgloss.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	styleNegative = lipgloss.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	styleWarn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
)

func formatMoney(cents int64, currency string) string {
	return money.New(cents, currency).Display()
}

// signedMoney colors inflows green and outflows red.
func signedMoney(cents int64, currency string) string {
	s := formatMoney(cents, currency)
	if cents < 0 {
		return styleNegative.Render(s)
	}
	if cents > 0 {
		return stylePositive.Render(s)
	}
	return styleDim.Render(s)
}

// renderTable lays out rows under a styled header with padded columns.
func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(styleHeader.Render(pad(h, widths[i])))
		if i < len(headers)-1 {
			b.WriteString("  ")
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			if i < len(row)-1 {
				b.WriteString("  ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// pad right-fills by rendered width so styled cells still line up.
func pad(s string, width int) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// parseDay accepts YYYY-MM-DD.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// parseRange resolves -from/-to flags. Both empty means the current month;
// a YYYY-MM value expands to that whole month.
func parseRange(fromFlag, toFlag string) (time.Time, time.Time, error) {
	if fromFlag == "" && toFlag == "" {
		now := time.Now().UTC()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, -1), nil
	}

	if toFlag == "" && len(fromFlag) == len("2006-01") {
		month, err := time.Parse("2006-01", fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid month %q, want YYYY-MM", fromFlag)
		}
		from := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, -1), nil
	}

	from, err := parseDay(fromFlag)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to := from
	if toFlag != "" {
		if to, err = parseDay(toFlag); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("range end %s precedes start %s", toFlag, fromFlag)
	}
	return from, to, nil
}

func formatDay(t time.Time) string { return t.Format("2006-01-02") }
