package vector

import (
	"context"
	"fmt"

	"github.com/hrygo/agenthub/ai/core/embedding"
	"github.com/hrygo/agenthub/store"
)

// ChunkSearcher is implemented by the pgvector store.
type ChunkSearcher interface {
	SearchDocumentChunks(ctx context.Context, opts *store.DocumentSearchOptions) ([]*store.DocumentChunkWithScore, error)
}

// StoreSearcher embeds the query and runs a nearest-neighbour search in the store.
type StoreSearcher struct {
	embedder embedding.Service
	chunks   ChunkSearcher
}

var _ Searcher = (*StoreSearcher)(nil)

func NewStoreSearcher(embedder embedding.Service, chunks ChunkSearcher) *StoreSearcher {
	return &StoreSearcher{embedder: embedder, chunks: chunks}
}

func (s *StoreSearcher) Search(ctx context.Context, index, query string, topK int) ([]Hit, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	results, err := s.chunks.SearchDocumentChunks(ctx, &store.DocumentSearchOptions{
		Index:  index,
		Vector: vec,
		Limit:  topK,
	})
	if err != nil {
		return nil, fmt.Errorf("search index %s: %w", index, err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Source: r.Chunk.Source, Content: r.Chunk.Content, Score: r.Score})
	}
	return hits, nil
}
