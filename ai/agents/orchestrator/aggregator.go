package orchestrator

import (
	"strings"
)

// sectionSeparator joins multi-agent sections.
const sectionSeparator = "\n\n---\n\n"

// Outcome is what one agent produced for a request.
type Outcome struct {
	Agent       string
	Content     string
	Err         error
	HoldSession bool
}

// Merge combines outcomes, in dispatch order, into one Markdown answer.
// A single outcome is returned as is; several become "### 🤖 NAME Agent" sections.
func Merge(outcomes []Outcome) string {
	switch len(outcomes) {
	case 0:
		return ""
	case 1:
		return outcomes[0].Content
	}

	sections := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		sections = append(sections, "### 🤖 "+strings.ToUpper(o.Agent)+" Agent\n\n"+o.Content)
	}
	return strings.Join(sections, sectionSeparator)
}

// holders returns the agents that asked to keep the session, in dispatch order.
func holders(outcomes []Outcome) []string {
	var names []string
	for _, o := range outcomes {
		if o.Err == nil && o.HoldSession {
			names = append(names, o.Agent)
		}
	}
	return names
}
