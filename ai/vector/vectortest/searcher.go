// Package vectortest provides an in-memory vector.Searcher for tests.
package vectortest

import (
	"context"
	"sync"

	"github.com/hrygo/agenthub/ai/vector"
)

// Query is one recorded Search call.
type Query struct {
	Index string
	Text  string
	TopK  int
}

// Searcher returns canned hits per index.
type Searcher struct {
	mu      sync.Mutex
	hits    map[string][]vector.Hit
	err     error
	queries []Query
}

var _ vector.Searcher = (*Searcher)(nil)

// New creates an empty searcher.
func New() *Searcher {
	return &Searcher{hits: make(map[string][]vector.Hit)}
}

// WithHits sets the hits returned for index.
func (s *Searcher) WithHits(index string, hits ...vector.Hit) *Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[index] = hits
	return s
}

// WithError makes every search fail.
func (s *Searcher) WithError(err error) *Searcher {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	return s
}

func (s *Searcher) Search(_ context.Context, index, query string, topK int) ([]vector.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, Query{Index: index, Text: query, TopK: topK})
	if s.err != nil {
		return nil, s.err
	}
	hits := s.hits[index]
	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return append([]vector.Hit(nil), hits...), nil
}

// Queries returns the recorded calls.
func (s *Searcher) Queries() []Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Query(nil), s.queries...)
}
