package store

import (
	"github.com/pkg/errors"
)

// DocumentChunk is one embedded passage of a named search index.
type DocumentChunk struct {
	ID        int64
	Index     string // e.g. documents, cicp, ida-products, bank-policy
	Source    string // file name or URL the passage came from
	Content   string
	Embedding []float32
	CreatedTs int64
}

// DocumentChunkWithScore represents a vector search result with similarity score.
type DocumentChunkWithScore struct {
	Chunk *DocumentChunk
	Score float32 // Similarity score (0-1, higher is more similar)
}

// DocumentSearchOptions represents the options for index vector search.
type DocumentSearchOptions struct {
	Index  string
	Vector []float32
	Limit  int
}

// Validate validates the DocumentSearchOptions.
func (o *DocumentSearchOptions) Validate() error {
	if o.Index == "" {
		return errors.New("index cannot be empty")
	}
	if len(o.Vector) == 0 {
		return errors.New("vector cannot be empty")
	}
	if o.Limit < 0 {
		return errors.Errorf("limit cannot be negative: %d", o.Limit)
	}
	if o.Limit == 0 {
		o.Limit = 5
	}
	if o.Limit > 100 {
		return errors.Errorf("limit too large (max 100): %d", o.Limit)
	}
	return nil
}
