// internal/nlu/normalize.go
package nlu

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Fold lowercases s and strips combining marks, so "Pantalón" becomes "pantalon".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokens splits s on anything that is not a letter or digit.
func Tokens(s string) []string {
	return wordPattern.FindAllString(s, -1)
}

// normalizeText folds s and collapses it to single-space separated tokens.
func normalizeText(s string) string {
	return strings.Join(Tokens(Fold(s)), " ")
}

// containsPhrase reports whether phrase appears as whole tokens in text.
// Both arguments must already be normalized.
func containsPhrase(text, phrase string) bool {
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}
