package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter splits text on whitespace and keeps the tokens made only of letters
// whose lowercase form is not a stopword. Kept tokens retain their casing
// and order. filtered is the kept tokens joined by single spaces.
func Filter(text string, stopwords StopwordSet) (filtered string, tokens []string) {
	lower := cases.Lower(language.Und)
	tokens = []string{}
	for _, tok := range strings.Fields(text) {
		if !IsAlpha(tok) {
			continue
		}
		if stopwords.Contains(lower.String(tok)) {
			continue
		}
		tokens = append(tokens, tok)
	}
	return strings.Join(tokens, " "), tokens
}

// IsAlpha reports whether s is non-empty and every rune is a letter.
func IsAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
