// Package textnorm holds the text canonicalization shared by statement
// column matching, institution identity and entry fingerprints.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks, so "Crédito" becomes "Credito".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Fold lowercases, strips diacritics and collapses whitespace runs.
// Two names compare equal under Fold when they identify the same thing.
func Fold(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(StripDiacritics(s))), " ")
}

// ForHash reduces s to lowercase alphanumerics separated by single spaces,
// the canonical form hashed into fingerprints.
func ForHash(s string) string {
	folded := strings.ToLower(StripDiacritics(s))
	var b strings.Builder
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
