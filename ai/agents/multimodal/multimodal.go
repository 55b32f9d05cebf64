// Package multimodal answers questions about attached images.
package multimodal

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
)

const defaultQuestion = "Describe this image in detail."

// Agent sends images with the user's text to a vision-capable model.
type Agent struct {
	llm llm.Service
}

var _ agents.Agent = (*Agent)(nil)

// New creates the multimodal agent.
func New(llmService llm.Service) *Agent {
	return &Agent{llm: llmService}
}

func (a *Agent) Name() string { return agents.Multimodal }

func (a *Agent) Description() string {
	return "Vision analysis of attached images (PNG, JPG, GIF, WEBP, BMP): describe, read text, answer questions about the picture."
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	query := req.Query
	if query == "" {
		query = defaultQuestion
	}

	var msg llm.Message
	switch {
	case req.HasFile() && agents.IsImage(req.FilePath):
		img, err := llm.LoadImage(req.FilePath)
		if err != nil {
			return nil, fmt.Errorf("multimodal: %w", err)
		}
		slog.Debug("multimodal: attached image", "file", filepath.Base(req.FilePath), "mime", img.MIMEType, "bytes", len(img.Data))
		msg = llm.UserMessageWithImages(query, img)
	case req.HasFile():
		msg = llm.UserMessage(fmt.Sprintf("%s\n[Note: Uploaded file '%s' is not a supported image format.]", query, filepath.Base(req.FilePath)))
	default:
		msg = llm.UserMessage(query)
	}

	reply, _, err := a.llm.Chat(ctx, []llm.Message{msg}, llm.WithTemperature(0.3))
	if err != nil {
		return nil, fmt.Errorf("multimodal: %w", err)
	}
	return agents.Text(reply), nil
}
