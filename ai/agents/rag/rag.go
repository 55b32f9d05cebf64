// Package rag answers questions from the document index, citing its sources.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/hrygo/agenthub/ai/agents"
	"github.com/hrygo/agenthub/ai/core/llm"
	"github.com/hrygo/agenthub/ai/core/reranker"
	"github.com/hrygo/agenthub/ai/docread"
	"github.com/hrygo/agenthub/ai/vector"
)

// DefaultTopK is how many passages are retrieved per question.
const DefaultTopK = 5

// rerankPool is how many candidates per kept passage go to the reranker.
const rerankPool = 3

const emptyQueryMessage = "Please provide a question after the RAG prefix so I can search the index."

const systemPrompt = `You answer questions using only the provided context.
Cite passages with their bracketed numbers, e.g. [1] or [2][3]. If the context does not contain the answer, reply exactly "I don't know."
Finish with a "**Sources:**" line listing the cited source names.`

// Agent is the retrieval-augmented generation agent.
type Agent struct {
	llm      llm.Service
	searcher vector.Searcher
	reranker reranker.Service
	index    string
	topK     int
}

var _ agents.Agent = (*Agent)(nil)

// Option configures the agent.
type Option func(*Agent)

// WithIndex searches index instead of the documents index.
func WithIndex(index string) Option {
	return func(a *Agent) {
		if index != "" {
			a.index = index
		}
	}
}

// WithTopK sets how many passages are retrieved.
func WithTopK(k int) Option {
	return func(a *Agent) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithReranker over-fetches candidates and keeps the topK the reranker scores highest.
func WithReranker(r reranker.Service) Option {
	return func(a *Agent) {
		if r != nil && r.IsEnabled() {
			a.reranker = r
		}
	}
}

// New creates the rag agent. A nil searcher limits it to attached documents.
func New(llmService llm.Service, searcher vector.Searcher, opts ...Option) *Agent {
	a := &Agent{llm: llmService, searcher: searcher, index: vector.IndexDocuments, topK: DefaultTopK}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) Name() string { return agents.RAG }

func (a *Agent) Description() string {
	return "Retrieval-augmented answers from the indexed knowledge base and attached documents (PDF, DOCX, XLSX, CSV, TXT), with citations."
}

// StripPrefix removes a leading "rag " or "rag:" marker, in any case.
func StripPrefix(query string) string {
	trimmed := strings.TrimSpace(query)
	lower := strings.ToLower(trimmed)
	for _, prefix := range []string{"rag ", "rag:"} {
		if strings.HasPrefix(lower, prefix) {
			return strings.TrimSpace(trimmed[len(prefix):])
		}
	}
	return trimmed
}

func (a *Agent) Invoke(ctx context.Context, req *agents.Request) (*agents.Response, error) {
	question := StripPrefix(req.Query)
	if question == "" {
		return agents.Text(emptyQueryMessage), nil
	}

	var hits []vector.Hit
	if req.HasFile() && agents.IsDocument(req.FilePath) {
		text, err := docread.ReadText(req.FilePath, docread.DefaultMaxChars)
		if err != nil {
			return nil, fmt.Errorf("rag: read attachment: %w", err)
		}
		hits = append(hits, vector.Hit{Source: filepath.Base(req.FilePath), Content: text})
	}

	if a.searcher != nil {
		found, err := a.search(ctx, question)
		switch {
		case err != nil && len(hits) == 0:
			return nil, fmt.Errorf("rag: search %s: %w", a.index, err)
		case err != nil:
			slog.Warn("rag: index search failed, answering from attachment", "index", a.index, "error", err)
		default:
			hits = append(hits, found...)
		}
	}

	if len(hits) == 0 {
		return agents.Text(a.notFound()), nil
	}

	user := fmt.Sprintf("Context:\n%s\n\nQuestion: %s", vector.FormatCitations(hits), question)
	reply, _, err := a.llm.Chat(ctx,
		[]llm.Message{llm.SystemPrompt(systemPrompt), llm.UserMessage(user)},
		llm.WithTemperature(0.2))
	if err != nil {
		return nil, fmt.Errorf("rag: %w", err)
	}

	if answer := strings.TrimSpace(reply); answer == "" || strings.EqualFold(strings.TrimSuffix(answer, "."), "i don't know") {
		return agents.Text(a.notFound()), nil
	}
	return agents.Text(reply), nil
}

func (a *Agent) search(ctx context.Context, question string) ([]vector.Hit, error) {
	if a.reranker == nil {
		return a.searcher.Search(ctx, a.index, question, a.topK)
	}

	candidates, err := a.searcher.Search(ctx, a.index, question, a.topK*rerankPool)
	if err != nil || len(candidates) <= 1 {
		return candidates, err
	}
	docs := make([]string, len(candidates))
	for i, h := range candidates {
		docs[i] = h.Content
	}
	ranked, err := a.reranker.Rerank(ctx, question, docs, a.topK)
	if err != nil {
		slog.Warn("rag: rerank failed, keeping search order", "error", err)
		return candidates[:min(a.topK, len(candidates))], nil
	}
	out := make([]vector.Hit, 0, len(ranked))
	for _, r := range ranked {
		h := candidates[r.Index]
		h.Score = r.Score
		out = append(out, h)
	}
	return out, nil
}

func (a *Agent) notFound() string {
	return fmt.Sprintf("I searched the **%s** index but couldn't find relevant information. Try rephrasing your question.", a.index)
}
