package strutil

import (
	"strings"
	"unicode"
)

// ContainsAnyPhrase reports whether s contains any of the phrases.
// Phrases of three runes or fewer ("eta", "fir") only match as whole words.
func ContainsAnyPhrase(s string, phrases []string) bool {
	for _, p := range phrases {
		if p == "" {
			continue
		}
		if len([]rune(p)) <= 3 {
			if ContainsWord(s, p) {
				return true
			}
			continue
		}
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// ContainsWord reports whether word occurs in s delimited by non-alphanumerics.
func ContainsWord(s, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if isBoundary(s, start-1) && isBoundary(s, end) {
			return true
		}
		from = start + 1
	}
	return false
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	r := rune(s[i])
	return r < 0x80 && !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
