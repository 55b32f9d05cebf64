// Package reranker reorders retrieved passages with a cross-encoder rerank
// endpoint (Cohere / Jina / SiliconFlow compatible).
package reranker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hrygo/agenthub/ai/internal/httpapi"
)

// Result is one reranked document.
type Result struct {
	Index int     // position in the input slice
	Score float32 // relevance score
}

// Service reorders documents by relevance to a query.
type Service interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error)

	// IsEnabled reports whether a real endpoint is configured.
	IsEnabled() bool
}

// Config configures the rerank endpoint.
type Config struct {
	Model   string
	APIKey  string
	BaseURL string
	Enabled bool
}

type service struct {
	http     *httpapi.Client
	endpoint string
	model    string
	enabled  bool
}

// NewService creates a Service. A disabled service keeps the input order.
func NewService(cfg *Config) Service {
	return &service{
		http:     httpapi.New("Rerank", httpapi.WithHeader("Authorization", "Bearer "+cfg.APIKey)),
		endpoint: endpoint(cfg.BaseURL),
		model:    cfg.Model,
		enabled:  cfg.Enabled && cfg.BaseURL != "",
	}
}

func endpoint(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base + "/rerank"
	}
	return base + "/v1/rerank"
}

func (s *service) IsEnabled() bool {
	return s.enabled
}

func (s *service) Rerank(ctx context.Context, query string, documents []string, topN int) ([]Result, error) {
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}
	if !s.enabled || len(documents) == 0 {
		results := make([]Result, topN)
		for i := range results {
			results[i] = Result{Index: i, Score: 1.0 - float32(i)*0.01}
		}
		return results, nil
	}

	res, err := s.http.PostJSON(ctx, s.endpoint, map[string]any{
		"model":     s.model,
		"query":     query,
		"documents": documents,
		"top_n":     topN,
	})
	if err != nil {
		return nil, err
	}

	var results []Result
	for _, r := range res.Get("results").Array() {
		idx := int(r.Get("index").Int())
		if idx < 0 || idx >= len(documents) {
			return nil, fmt.Errorf("rerank: index %d out of range", idx)
		}
		results = append(results, Result{Index: idx, Score: float32(r.Get("relevance_score").Float())})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}
