package textnorm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripDiacritics(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Credito", StripDiacritics("Crédito"))
	require.Equal(t, "TRANSFERENCIA", StripDiacritics("TRANSFERÊNCIA"))
	require.Equal(t, "Sao Joao", StripDiacritics("São João"))
	require.Equal(t, "plain", StripDiacritics("plain"))
}

func TestFold(t *testing.T) {
	t.Parallel()

	require.Equal(t, "credito", Fold("  CRÉDITO  "))
	require.Equal(t, "banco do brasil", Fold("Banco   do\tBrasil"))
	require.Equal(t, "", Fold("   "))
}

func TestForHash(t *testing.T) {
	t.Parallel()

	require.Equal(t, "netflix com", ForHash("NETFLIX.COM"))
	require.Equal(t, "pag jose silva", ForHash("PAG*José  Silva"))
	require.Equal(t, "cafe paris 123", ForHash("CAFÉ-Paris (123)"))
	require.Equal(t, ForHash("Crédito"), ForHash("credito"), "diacritics and case never change the canonical form")
}
