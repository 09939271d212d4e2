package statement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lcrowe/ledgerline/internal/textnorm"
)

// Mapping names which column carries which field. Unused columns are -1.
// Amounts come from either AmountCol (signed) or the DebitCol/CreditCol pair.
type Mapping struct {
	DateCol    int
	DescCol    int
	AmountCol  int
	DebitCol   int
	CreditCol  int
	TypeCol    int
	AccountCol int
	BalanceCol int
}

// NewMapping returns a mapping with every column unset.
func NewMapping() Mapping {
	return Mapping{
		DateCol: -1, DescCol: -1, AmountCol: -1, DebitCol: -1,
		CreditCol: -1, TypeCol: -1, AccountCol: -1, BalanceCol: -1,
	}
}

// DoubleEntry reports whether amounts come from a debit/credit pair.
func (m Mapping) DoubleEntry() bool {
	return m.AmountCol < 0 && m.DebitCol >= 0 && m.CreditCol >= 0
}

// Validate checks the mapping is complete and inside the column range.
func (m Mapping) Validate(columns int) error {
	for _, col := range []int{m.DateCol, m.DescCol, m.AmountCol, m.DebitCol, m.CreditCol, m.TypeCol, m.AccountCol, m.BalanceCol} {
		if col >= columns {
			return fmt.Errorf("mapped column %d beyond the %d available", col, columns)
		}
	}
	if m.DateCol < 0 {
		return errors.New("no date column identified")
	}
	if m.DescCol < 0 {
		return errors.New("no description column identified")
	}
	if m.AmountCol < 0 && (m.DebitCol < 0 || m.CreditCol < 0) {
		return errors.New("no amount column identified")
	}
	return nil
}

var (
	dateAliases        = []string{"posted date", "transaction date", "value date", "date", "data", "fecha", "datum", "dia"}
	descriptionAliases = []string{"description", "descricao", "descripcion", "historico", "narrative", "details", "memo", "payee", "merchant", "concepto", "lancamento", "detail"}
	amountAliases      = []string{"amount", "valor", "montant", "importe", "betrag", "quantia", "value", "total"}
	debitAliases       = []string{"debit", "debito", "withdrawal", "saida", "cargo", "money out", "paid out"}
	creditAliases      = []string{"credit", "credito", "deposit", "entrada", "abono", "money in", "paid in"}
	typeAliases        = []string{"transaction type", "type", "tipo", "d/c", "dc"}
	accountAliases     = []string{"account", "conta", "cuenta", "iban"}
	balanceAliases     = []string{"running balance", "balance", "saldo", "solde"}
)

// SuggestMapping matches folded column names against alias lists, containment
// in either direction. Balance-shaped columns are identified first so the
// amount never lands on a running balance.
func SuggestMapping(columns []string) Mapping {
	folded := make([]string, len(columns))
	for i, c := range columns {
		folded[i] = textnorm.Fold(c)
	}
	taken := make([]bool, len(columns))

	m := NewMapping()
	m.BalanceCol = claim(folded, taken, balanceAliases, nil)
	m.DateCol = claim(folded, taken, dateAliases, nil)
	m.DescCol = claim(folded, taken, descriptionAliases, nil)
	m.AmountCol = claim(folded, taken, amountAliases, balanceLike)
	if m.AmountCol < 0 {
		debit := findColumn(folded, taken, debitAliases, balanceLike)
		credit := findColumn(folded, taken, creditAliases, balanceLike)
		if debit >= 0 && credit >= 0 && debit != credit {
			m.DebitCol, m.CreditCol = debit, credit
			taken[debit], taken[credit] = true, true
		}
	}
	m.TypeCol = claim(folded, taken, typeAliases, nil)
	m.AccountCol = claim(folded, taken, accountAliases, nil)
	return m
}

func claim(folded []string, taken []bool, aliases []string, avoid func(string) bool) int {
	idx := findColumn(folded, taken, aliases, avoid)
	if idx >= 0 {
		taken[idx] = true
	}
	return idx
}

// findColumn walks aliases in priority order, leftmost column breaking ties.
func findColumn(folded []string, taken []bool, aliases []string, avoid func(string) bool) int {
	for _, alias := range aliases {
		for i, name := range folded {
			if taken[i] || name == "" {
				continue
			}
			if avoid != nil && avoid(name) {
				continue
			}
			if strings.Contains(name, alias) || (len(name) >= 3 && strings.Contains(alias, name)) {
				return i
			}
		}
	}
	return -1
}

func balanceLike(folded string) bool {
	for _, alias := range balanceAliases {
		if strings.Contains(folded, alias) {
			return true
		}
	}
	return false
}
