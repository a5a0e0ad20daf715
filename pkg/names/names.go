// Package names normalizes participant names: title-casing for display,
// case-folding for identity comparison, charset validation for entry.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Title returns the canonical form of a raw participant name: surrounding
// whitespace trimmed, each space-separated word lower-cased and then given an
// upper-case first rune. Returns "" when the trimmed input is empty.
// Total and idempotent.
func Title(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	lower := cases.Lower(language.Und)
	words := strings.Split(trimmed, " ")
	for i, word := range words {
		words[i] = upperFirst(lower.String(word))
	}
	return strings.Join(words, " ")
}

// upperFirst upper-cases the first rune only. A digit-led word like "123abc"
// is left as-is, which is what the title-case contract requires (cases.Title
// would titlecase the first cased letter instead).
func upperFirst(word string) string {
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// Fold returns the Unicode case-fold key for s. Two names denote the same
// participant exactly when their fold keys are equal.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ValidCharset reports whether s contains only letters, digits and
// whitespace.
func ValidCharset(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
