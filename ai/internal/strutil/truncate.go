// Package strutil provides string utility functions for the ai package.
package strutil

// Truncate truncates a string to a maximum length and appends "...".
// Uses rune-level truncation so multi-byte characters are never split.
// Returns empty string if maxLen <= 0 to prevent slice bounds panic.
func Truncate(s string, maxLen int) string {
	return TruncateWith(s, maxLen, "...")
}

// TruncateWith is Truncate with a caller-chosen suffix.
func TruncateWith(s string, maxLen int, suffix string) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + suffix
}

// Head returns at most maxLen runes of s without any suffix.
func Head(s string, maxLen int) string {
	return TruncateWith(s, maxLen, "")
}
