// Package general implements the fallback conversational agent.
package general

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/docread"
)

const maxFileChars = 12000

const systemPrompt = `You are the General Assistant inside a multi-agent AI hub.
You are helpful, accurate and concise. Answer the user's question to the best of your ability.
If you are unsure, say so. Format responses in Markdown when it aids readability.`

const historyPrompt = `

Here is the recent conversation history for context:
%s

Use this history to maintain continuity. If the user refers to something discussed earlier, use the history to respond accurately.`

// Agent answers anything no specialist claims.
type Agent struct {
	llm llm.Service
}

var _ agents.Agent = (*Agent)(nil)

// New creates the general agent.
func New(llmService llm.Service) *Agent {
	return &Agent{llm: llmService}
}

func (a *Agent) Name() string { return agents.General }

func (a *Agent) Description() string {
	return "General-purpose assistant for conversation, explanations, writing and anything no other agent covers; reads attached text files."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	system := systemPrompt
	if req.History != "" {
		system += fmt.Sprintf(historyPrompt, req.History)
	}

	reply, _, err := a.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(system), llm.UserMessage(req.Query + fileContext(req.FilePath))},
		llm.WithTemperature(0.7))
	if err != nil {
		return nil, fmt.Errorf("general: %w", err)
	}
	return agents.Text(reply), nil
}

// fileContext renders an attached file for the prompt.
func fileContext(path string) string {
	if path == "" {
		return ""
	}
	name := filepath.Base(path)

	text, err := docread.ReadText(path, maxFileChars+1)
	switch {
	case errors.Is(err, docread.ErrUnsupported):
		return fmt.Sprintf("\n\n[Note: The user attached '%s' but it is a binary file. Use the RAG or Multimodal agent for this file type.]", name)
	case err != nil:
		slog.Warn("general: attached file unreadable", "file", name, "error", err)
		return fmt.Sprintf("\n\n[Note: Could not read attached file '%s': %v]", name, err)
	}

	if r := []rune(text); len(r) > maxFileChars {
		text = string(r[:maxFileChars]) + "\n\n… [content truncated for length] …"
	}
	return fmt.Sprintf("\n\nThe user has attached a file named **%s**. Here is its content:\n\n```\n%s\n```", name, strings.TrimSpace(text))
}
