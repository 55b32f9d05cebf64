package orchestrator

import (
	"strings"

	"github.com/hrygo/agenthub/ai/memory"
)

// SummarizeHistory renders the newest maxMessages turns as "Role: content"
// lines, oldest first. Turns longer than maxChars runes are cut and end in "…".
func SummarizeHistory(turns []memory.Turn, maxMessages, maxChars int) string {
	if maxMessages > 0 && len(turns) > maxMessages {
		turns = turns[len(turns)-maxMessages:]
	}
	if len(turns) == 0 {
		return ""
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := t.Content
		if r := []rune(content); maxChars > 0 && len(r) > maxChars {
			content = string(r[:maxChars]) + "…"
		}
		lines = append(lines, roleLabel(t.Role)+": "+content)
	}
	return strings.Join(lines, "\n")
}

func roleLabel(role string) string {
	if role == "" {
		role = memory.RoleUser
	}
	return strings.ToUpper(role[:1]) + strings.ToLower(role[1:])
}
