package statement

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding identifies how the raw statement bytes were interpreted.
type Encoding string

const (
	EncodingUTF8         Encoding = "utf-8"
	EncodingUTF8Repaired Encoding = "utf-8-repaired"
	EncodingUTF16LE      Encoding = "utf-16le"
	EncodingUTF16BE      Encoding = "utf-16be"
	EncodingWindows1252  Encoding = "windows-1252"
)

// Decode interprets raw statement bytes as text. UTF-16 is recognized by BOM,
// invalid UTF-8 falls back to Windows-1252, and valid UTF-8 carrying the
// double-encoding signature ("JoÃ£o" for "João") is repaired by one reverse
// round trip. Line endings are normalized to \n.
func Decode(raw []byte) (string, Encoding) {
	if len(raw) >= 2 && raw[0] == 0xFF && raw[1] == 0xFE {
		dec := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return normalizeNewlines(string(out)), EncodingUTF16LE
		}
	}
	if len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF {
		dec := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
		if out, err := dec.Bytes(raw); err == nil {
			return normalizeNewlines(string(out)), EncodingUTF16BE
		}
	}

	raw = stripUTF8BOM(raw)
	if !utf8.Valid(raw) {
		return normalizeNewlines(decodeWindows1252(raw)), EncodingWindows1252
	}
	text := string(raw)
	if repaired, ok := repairMojibake(text); ok {
		return normalizeNewlines(repaired), EncodingUTF8Repaired
	}
	return normalizeNewlines(text), EncodingUTF8
}

func stripUTF8BOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}

func decodeWindows1252(data []byte) string {
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// repairMojibake undoes one round of UTF-8 text mistakenly decoded as
// Windows-1252. It rewrites only when the tell-tale lead characters are
// present and the whole text survives the reverse trip as valid UTF-8.
func repairMojibake(s string) (string, bool) {
	if !strings.Contains(s, "Ã") && !strings.Contains(s, "Â") && !strings.Contains(s, "â€") {
		return s, false
	}
	encoded, err := charmap.Windows1252.NewEncoder().String(s)
	if err != nil {
		return s, false
	}
	if !utf8.ValidString(encoded) {
		return s, false
	}
	return encoded, true
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u0085", "\n")
	return s
}
