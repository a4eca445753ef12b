package extract

import (
	"strings"
	"unicode"
)

// Context sentences shorter than this carry no useful signal.
const minContextLen = 10

// ContextSentence locates the sentence of fullText containing the first
// case-insensitive occurrence of selected, bounded by sentence terminators
// (. ! ? …) or the text edges. Whitespace in both inputs is collapsed first.
// Returns false when selected does not occur or the enclosing span is too
// short to be a usable sentence.
func ContextSentence(fullText, selected string) (string, bool) {
	full := []rune(collapseWhitespace(fullText))
	sel := []rune(collapseWhitespace(selected))
	if len(full) == 0 || len(sel) == 0 {
		return "", false
	}

	at := indexFold(full, sel)
	if at < 0 {
		return "", false
	}

	start := 0
	for i := at - 1; i >= 0; i-- {
		if isTerminator(full[i]) {
			start = i + 1
			break
		}
	}

	end := len(full)
	for i := at + len(sel); i < len(full); i++ {
		if isTerminator(full[i]) {
			end = i + 1
			break
		}
	}

	sentence := strings.TrimSpace(string(full[start:end]))
	if len([]rune(sentence)) <= minContextLen {
		return "", false
	}
	return sentence, true
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '…'
}

// collapseWhitespace folds every whitespace run into a single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// indexFold finds the first case-insensitive occurrence of needle in
// haystack, rune by rune, so positions stay aligned with the original text.
func indexFold(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if unicode.ToLower(haystack[i+j]) != unicode.ToLower(needle[j]) {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
