// Package extract derives learnable tokens and context sentences from
// captured page text. Everything here is pure: no I/O, no failure modes.
package extract

import (
	"strings"
	"unicode/utf8"
)

// Words tokenizes text into distinct word tokens, preserving first-occurrence
// order. Tokens are runs of word characters (alphanumerics plus Latin
// accented letters); runs of a single rune are dropped. Dedup folds case;
// the first occurrence decides the casing that is kept.
func Words(text string) []string {
	var tokens []string
	seen := make(map[string]int)

	var start = -1
	flush := func(end int) {
		if start < 0 {
			return
		}
		token := text[start:end]
		start = -1
		if utf8.RuneCountInString(token) <= 1 {
			return
		}
		key := strings.ToLower(token)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = len(tokens)
		tokens = append(tokens, token)
	}

	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
	}
	flush(len(text))

	return tokens
}

// isWordRune reports whether r belongs to a word token: ASCII alphanumerics
// plus the Latin-1 and Latin-Extended-A accented letters (ä, ö, ü, ß, é, č…).
// The multiplication and division signs sit inside the Latin-1 letter block
// and are excluded by the range splits.
func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r >= 'À' && r <= 'Ö', r >= 'Ø' && r <= 'ö', r >= 'ø' && r <= 'ÿ':
		return true
	case r >= 'Ā' && r <= 'ž':
		return true
	}
	return false
}
