package statement

import (
	"fmt"
	"strings"

	"github.com/lcrowe/ledgerline/internal/textnorm"
)

const headerScanLimit = 30

var headerKeywords = []string{
	"date", "data", "fecha", "datum",
	"description", "descricao", "descripcion", "historico", "memo", "details",
	"narrative", "payee", "merchant", "concepto", "lancamento",
	"amount", "valor", "montant", "importe", "betrag", "value",
	"debit", "debito", "credit", "credito",
	"balance", "saldo", "type", "tipo", "account", "conta", "cuenta",
	"currency", "moeda",
}

// LocateHeader finds the most header-like row near the top of the file.
// Preamble rows (bank name, statement period, account holder) score low on
// keywords; data rows score negative on date and amount shaped cells.
func LocateHeader(records []RawRecord) int {
	limit := len(records)
	if limit > headerScanLimit {
		limit = headerScanLimit
	}
	bestIdx := -1
	bestScore := 0.0
	for i := 0; i < limit; i++ {
		if records[i].Err != nil {
			continue
		}
		score := headerScore(records[i].Fields)
		if bestIdx < 0 || score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	return bestIdx
}

func headerScore(fields []string) float64 {
	nonEmpty, keywords, dataLike := 0, 0, 0
	for _, cell := range fields {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		nonEmpty++
		if matchesHeaderKeyword(textnorm.Fold(cell)) {
			keywords++
		}
		if looksLikeData(cell) {
			dataLike++
		}
	}
	return float64(nonEmpty) + 3*float64(keywords) - 2*float64(dataLike)
}

func matchesHeaderKeyword(folded string) bool {
	for _, kw := range headerKeywords {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

// looksLikeData reports whether a cell parses as a date or an amount, the
// shapes data rows are made of.
func looksLikeData(cell string) bool {
	if _, err := ParseDateCell(cell, ""); err == nil {
		return true
	}
	cleaned := cleanAmount(cell)
	if cleaned == "" || !strings.ContainsAny(cleaned, "0123456789") {
		return false
	}
	// a cell that survives cleaning mostly intact is numeric, not a label
	return len(cleaned)*2 >= len(strings.TrimSpace(cell))
}

// DedupeColumns gives repeated or empty header names stable unique forms.
func DedupeColumns(names []string) []string {
	out := make([]string, len(names))
	seen := map[string]int{}
	for i, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		key := textnorm.Fold(name)
		seen[key]++
		if n := seen[key]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out[i] = name
	}
	return out
}

// isRepeatedHeader drops header rows re-emitted mid file, common in
// multi-page exports. A row counts when at least 60% of the header's cells
// reappear in place.
func isRepeatedHeader(header, fields []string) bool {
	if len(header) == 0 {
		return false
	}
	n := len(fields)
	if len(header) < n {
		n = len(header)
	}
	matches := 0
	for i := 0; i < n; i++ {
		h := strings.TrimSpace(header[i])
		if h != "" && strings.EqualFold(h, strings.TrimSpace(fields[i])) {
			matches++
		}
	}
	return float64(matches) >= 0.6*float64(len(header))
}
