// Package utils provides shared utilities for text normalization and logging.
package utils

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a single token into its indexed form: diacritics are stripped,
// case is folded and every rune that is not a letter or a digit is dropped.
// "Très" becomes "tres", "c'est" becomes "cest" and "!!!" becomes "".
func Normalize(token string) string {
	// Transformers carry state, so the chain is rebuilt per call.
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Remove(runes.Predicate(isNoise)),
		cases.Fold(),
		norm.NFC,
	)
	out, _, err := transform.String(t, token)
	if err != nil {
		// Only reachable on malformed input; fall back to a rune-by-rune pass.
		return normalizeFallback(token)
	}
	return out
}

func isNoise(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func normalizeFallback(token string) string {
	buf := make([]rune, 0, utf8.RuneCountInString(token))
	for _, r := range token {
		if isNoise(r) {
			continue
		}
		buf = append(buf, unicode.ToLower(r))
	}
	return string(buf)
}

// Truncate returns s truncated to maxLen characters, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
