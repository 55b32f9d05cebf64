package llm

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenEstimator counts tokens locally with tiktoken.
// When the encoding cannot be loaded it falls back to a rune-based guess.
type TokenEstimator struct {
	encoding string

	once sync.Once
	enc  *tiktoken.Tiktoken
}

// NewTokenEstimator picks the encoding for model.
func NewTokenEstimator(model string) *TokenEstimator {
	return &TokenEstimator{encoding: encodingForModel(model)}
}

func encodingForModel(model string) string {
	m := strings.ToLower(model)
	switch {
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "gpt-4.1"), strings.HasPrefix(m, "gpt-5"), strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"):
		return "o200k_base"
	default:
		return "cl100k_base"
	}
}

func (e *TokenEstimator) load() *tiktoken.Tiktoken {
	e.once.Do(func() {
		enc, err := tiktoken.GetEncoding(e.encoding)
		if err != nil {
			slog.Warn("llm: tiktoken encoding unavailable, using heuristic", "encoding", e.encoding, "error", err)
			return
		}
		e.enc = enc
	})
	return e.enc
}

// Count returns the number of tokens in text.
func (e *TokenEstimator) Count(text string) int {
	if text == "" {
		return 0
	}
	if enc := e.load(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return heuristicTokens(text)
}

// CountMessages counts a chat prompt including per-message framing overhead.
func (e *TokenEstimator) CountMessages(messages []Message) int {
	total := 3 // reply priming
	for _, m := range messages {
		total += 4 + e.Count(m.Role) + e.Count(m.Content)
		// Vision inputs are billed per tile; 85 is the low-detail base cost.
		total += 85 * len(m.Images)
	}
	return total
}

// heuristicTokens approximates 4 characters per token.
func heuristicTokens(text string) int {
	n := len([]rune(text))
	return (n + 3) / 4
}
