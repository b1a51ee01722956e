// Package search builds per-entry search documents and ranks entries
// against a free-text query.
package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds s to NFKC and lower case so full-width and half-width
// forms compare equal.
func Normalize(s string) string {
	// A Caser is stateful; one per call keeps Normalize goroutine safe.
	return cases.Lower(language.Und).String(norm.NFKC.String(s))
}

// Tokenize splits normalised s into tokens made of ASCII digits and
// letters, Hiragana, Katakana (with the prolonged sound mark) and Han.
// Any other rune separates tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Normalize(s), func(r rune) bool { return !isTokenRune(r) })
}

func isTokenRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9', r >= 'a' && r <= 'z':
		return true
	case r == 'ー':
		return true
	}
	return unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han)
}
