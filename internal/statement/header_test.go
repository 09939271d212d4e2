package statement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocateHeader_SkipsPreamble(t *testing.T) {
	t.Parallel()
	records := SplitRecords("Banco Exemplo S.A.;;\n"+
		"Periodo: 01/01/2026 a 31/01/2026;;\n"+
		"Data;Historico;Valor\n"+
		"05/01/2026;MERCADO;-10,00\n", ';')

	idx := LocateHeader(records)
	require.Equal(t, 2, idx)
}

func TestLocateHeader_FirstRowWhenClean(t *testing.T) {
	t.Parallel()
	records := SplitRecords("Date,Description,Amount\n13/01/2026,SHOP,-10.00\n", ',')
	require.Equal(t, 0, LocateHeader(records))
}

func TestDedupeColumns(t *testing.T) {
	t.Parallel()

	got := DedupeColumns([]string{"Date", "", "Amount", "Amount", "amount"})
	require.Equal(t, []string{"Date", "column_2", "Amount", "Amount_2", "amount_3"}, got)
}

func TestIsRepeatedHeader(t *testing.T) {
	t.Parallel()
	header := []string{"Date", "Description", "Amount"}

	require.True(t, isRepeatedHeader(header, []string{"Date", "Description", "Amount"}))
	require.True(t, isRepeatedHeader(header, []string{"DATE", "DESCRIPTION", "AMOUNT"}))
	require.False(t, isRepeatedHeader(header, []string{"13/01/2026", "SHOP", "-10.00"}))
	require.False(t, isRepeatedHeader(header, []string{"Date", "SHOP", "-10.00"}), "one cell in place is not a header")
	require.False(t, isRepeatedHeader(nil, []string{"Date"}))
}
