// Package vector provides similarity search over named document indexes.
package vector

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Well-known index names.
const (
	IndexDocuments   = "documents"
	IndexClaimsRules = "cicp"
	IndexIDAProducts = "ida-products"
	IndexBankPolicy  = "bank-policy"
)

// Hit is one retrieved passage.
type Hit struct {
	Source  string  `json:"source"`
	Content string  `json:"content"`
	Score   float32 `json:"score"`
}

// Searcher retrieves the passages of an index most similar to a query.
type Searcher interface {
	Search(ctx context.Context, index, query string, topK int) ([]Hit, error)
}

// ErrUnavailable is returned when no vector database is configured.
var ErrUnavailable = errors.New("vector search is not configured")

// Unavailable is the Searcher of deployments without a vector database.
type Unavailable struct{}

var _ Searcher = Unavailable{}

func (Unavailable) Search(context.Context, string, string, int) ([]Hit, error) {
	return nil, ErrUnavailable
}

// FormatCitations renders hits as a numbered source list for prompts.
func FormatCitations(hits []Hit) string {
	var sb strings.Builder
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		source := h.Source
		if source == "" {
			source = "unknown"
		}
		fmt.Fprintf(&sb, "[%d] (%s)\n%s", i+1, source, h.Content)
	}
	return sb.String()
}
