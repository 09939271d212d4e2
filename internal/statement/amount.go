package statement

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NumberStyle describes how a file writes decimal amounts.
type NumberStyle int

const (
	StyleUnknown NumberStyle = iota
	StyleDot                 // 1,234.56
	StyleComma               // 1.234,56
)

// DetectNumberStyle elects the decimal convention from sample amount cells.
// When both separators appear in one cell the rightmost wins; a lone
// separator counts only when followed by one or two digits.
func DetectNumberStyle(samples []string) NumberStyle {
	commaHints, dotHints := 0, 0
	for _, raw := range samples {
		cleaned := strings.TrimPrefix(cleanAmount(raw), "-")
		if cleaned == "" {
			continue
		}
		hasComma := strings.Contains(cleaned, ",")
		hasDot := strings.Contains(cleaned, ".")
		switch {
		case hasComma && hasDot:
			if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
				commaHints++
			} else {
				dotHints++
			}
		case hasComma:
			if decimalSuffix(cleaned, ',') {
				commaHints++
			}
		case hasDot:
			if decimalSuffix(cleaned, '.') {
				dotHints++
			}
		}
	}
	switch {
	case commaHints > dotHints:
		return StyleComma
	case dotHints > 0:
		return StyleDot
	default:
		return StyleUnknown
	}
}

// ParseAmountCents parses one amount cell into exact signed cents.
// Currency symbols and grouping are stripped; negatives may be a leading or
// trailing minus or accounting parentheses.
func ParseAmountCents(raw string, style NumberStyle) (int64, error) {
	cleaned := cleanAmount(raw)
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, fmt.Errorf("no digits in amount %q", raw)
	}

	neg := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		neg = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}
	if strings.HasSuffix(cleaned, "-") {
		neg = true
		cleaned = strings.TrimSuffix(cleaned, "-")
	}
	if strings.HasPrefix(cleaned, "-") {
		neg = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	cleaned = strings.TrimPrefix(cleaned, "+")

	if style == StyleUnknown {
		style = DetectNumberStyle([]string{raw})
		if style == StyleUnknown {
			style = StyleDot
		}
	}
	switch style {
	case StyleComma:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	cents := d.Shift(2).Round(0).IntPart()
	if neg {
		cents = -cents
	}
	return cents, nil
}

// cleanAmount keeps only the characters that carry numeric meaning.
func cleanAmount(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-', r == '+', r == '(', r == ')':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func decimalSuffix(s string, sep byte) bool {
	idx := strings.LastIndexByte(s, sep)
	if idx < 0 {
		return false
	}
	frac := s[idx+1:]
	if len(frac) == 0 || len(frac) > 2 {
		return false
	}
	for i := 0; i < len(frac); i++ {
		if frac[i] < '0' || frac[i] > '9' {
			return false
		}
	}
	return true
}
