package routing

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/agents/registry"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/internal/strutil"
	"github.com/hrygo/agenthub/ai/memory"
)

const classifierSystemPrompt = `You route requests inside a multi-agent assistant.

Available agents:
%s
Rules:
- Select ALL agents jointly needed to answer the latest message. A database question that also asks for a chart needs ["sql", "viz"], in that order.
- If the latest message is a follow-up that only makes sense in the context of the previous answer, select the agent(s) that produced that answer again instead of "general".
- An attached image usually needs "multimodal" unless another agent analyses images itself (cicp, ida).
- Use "general" only when no specialised agent fits.
- Reply with a JSON array of agent names and nothing else, for example ["weather"].`

// historyContentLimit bounds each turn shown to the classifier.
const historyContentLimit = 300

func buildPrompt(caps []registry.Capability, window []memory.Turn, in Input) []llm.Message {
	var agentList strings.Builder
	for _, c := range caps {
		fmt.Fprintf(&agentList, "- %s: %s\n", c.Name, c.Description)
	}

	var user strings.Builder
	if len(window) > 0 {
		user.WriteString("Recent conversation:\n")
		for _, t := range window {
			role := t.Role
			if len(t.Agents) > 0 {
				role += " (" + strings.Join(t.Agents, ", ") + ")"
			}
			fmt.Fprintf(&user, "%s: %s\n", role, strutil.Truncate(t.Content, historyContentLimit))
		}
		user.WriteString("\n")
	}
	if hint := fileHint(in.FilePath); hint != "" {
		fmt.Fprintf(&user, "Attached file: %s\n\n", hint)
	}
	fmt.Fprintf(&user, "Latest message: %s", in.Query)

	return []llm.Message{
		llm.SystemPrompt(fmt.Sprintf(classifierSystemPrompt, agentList.String())),
		llm.UserMessage(user.String()),
	}
}

// fileHint describes an attachment by name and kind.
func fileHint(filePath string) string {
	if filePath == "" {
		return ""
	}
	kind := "other"
	switch {
	case agents.IsImage(filePath):
		kind = "image"
	case agents.IsDocument(filePath):
		kind = "document"
	}
	return filepath.Base(filePath) + " (" + kind + ")"
}

// parseAgentList decodes a JSON array of agent names. Names are case-folded;
// unknown names are dropped. A reply with no known name is malformed.
func parseAgentList(reply string) ([]string, error) {
	payload := llm.StripCodeFence(reply)
	start := strings.IndexByte(payload, '[')
	end := strings.LastIndexByte(payload, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array in reply", ErrMalformedOutput)
	}

	var names []string
	if err := json.Unmarshal([]byte(payload[start:end+1]), &names); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}

	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if agents.IsKnown(n) {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no known agent in %q", ErrMalformedOutput, strutil.Truncate(payload, 100))
	}
	return queryBeforeChart(dedupe(out)), nil
}

// queryBeforeChart moves the database agent ahead of the charting agent; the
// chart renders the query result, so the model's ordering is not trusted here.
func queryBeforeChart(names []string) []string {
	sqlAt, vizAt := -1, -1
	for i, n := range names {
		switch n {
		case agents.SQL:
			sqlAt = i
		case agents.Viz:
			vizAt = i
		}
	}
	if sqlAt < 0 || vizAt < 0 || sqlAt < vizAt {
		return names
	}
	out := make([]string, 0, len(names))
	for i, n := range names {
		if i == sqlAt {
			continue
		}
		if i == vizAt {
			out = append(out, agents.SQL)
		}
		out = append(out, n)
	}
	return out
}
