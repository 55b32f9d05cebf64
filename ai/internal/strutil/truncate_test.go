package strutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"empty string", "", 10, ""},
		{"short string", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"needs truncation", "hello world", 5, "hello..."},
		{"single char truncated", "ab", 1, "a..."},

		{"negative maxLen", "hello", -1, ""},
		{"zero maxLen", "hello", 0, ""},

		{"chinese exact", "中文测试", 4, "中文测试"},
		{"chinese truncated", "中文测试abc", 4, "中文测试..."},
		{"mixed unicode", "a中b文c", 3, "a中b..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestTruncateWith(t *testing.T) {
	if got := TruncateWith("abcdef", 3, "…"); got != "abc…" {
		t.Errorf("TruncateWith() = %q, want %q", got, "abc…")
	}
	if got := TruncateWith("abc", 3, "…"); got != "abc" {
		t.Errorf("TruncateWith() = %q, want %q", got, "abc")
	}
}

func TestHead(t *testing.T) {
	if got := Head("claim summary text", 5); got != "claim" {
		t.Errorf("Head() = %q, want %q", got, "claim")
	}
}
