package statement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func utf16le(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, r := range s {
		out = append(out, byte(r), byte(r>>8))
	}
	return out
}

func TestDecode_PlainUTF8(t *testing.T) {
	t.Parallel()
	text, enc := Decode([]byte("Data;Valor\n05/01/2026;-10,00\n"))
	require.Equal(t, EncodingUTF8, enc)
	require.Equal(t, "Data;Valor\n05/01/2026;-10,00\n", text)
}

func TestDecode_StripsUTF8BOM(t *testing.T) {
	t.Parallel()
	text, enc := Decode(append([]byte{0xEF, 0xBB, 0xBF}, "Date,Amount"...))
	require.Equal(t, EncodingUTF8, enc)
	require.Equal(t, "Date,Amount", text)
}

func TestDecode_UTF16LEByBOM(t *testing.T) {
	t.Parallel()
	text, enc := Decode(utf16le("Data;Valor\r\n"))
	require.Equal(t, EncodingUTF16LE, enc)
	require.Equal(t, "Data;Valor\n", text)
}

func TestDecode_Windows1252Fallback(t *testing.T) {
	t.Parallel()
	// 0xC9 is É in Windows-1252 and invalid as a UTF-8 sequence here
	text, enc := Decode([]byte("CR\xC9DITO"))
	require.Equal(t, EncodingWindows1252, enc)
	require.Equal(t, "CRÉDITO", text)
}

func TestDecode_RepairsMojibake(t *testing.T) {
	t.Parallel()
	text, enc := Decode([]byte("TRANSFERÃŠNCIA JoÃ£o"))
	require.Equal(t, EncodingUTF8Repaired, enc)
	require.Equal(t, "TRANSFERÊNCIA João", text)
}

func TestDecode_RealAccentsLeftAlone(t *testing.T) {
	t.Parallel()
	// "PÃO" carries a legitimate Ã; the reverse trip produces invalid bytes,
	// so no repair happens
	text, enc := Decode([]byte("PÃO DE QUEIJO"))
	require.Equal(t, EncodingUTF8, enc)
	require.Equal(t, "PÃO DE QUEIJO", text)
}

func TestDecode_NormalizesLineEndings(t *testing.T) {
	t.Parallel()
	text, _ := Decode([]byte("a\r\nb\rc"))
	require.Equal(t, "a\nb\nc", text)
}
