// Package ingest loads documents into a search index: read, split, embed, store.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hrygo/agenthub/ai/core/embedding"
	"github.com/hrygo/agenthub/ai/docread"
	"github.com/hrygo/agenthub/store"
)

// ChunkWriter is implemented by the pgvector store.
type ChunkWriter interface {
	UpsertDocumentChunk(ctx context.Context, chunk *store.DocumentChunk) (*store.DocumentChunk, error)
}

// Config controls how documents are split and embedded.
type Config struct {
	// ChunkSize is the maximum passage length in runes.
	ChunkSize int
	// Overlap is how many runes consecutive passages share.
	Overlap int
	// BatchSize is how many passages go into one embedding request.
	BatchSize int
	// MaxChars bounds the text read from one file.
	MaxChars int
}

func DefaultConfig() Config {
	return Config{
		ChunkSize: 1000,
		Overlap:   200,
		BatchSize: 16,
		MaxChars:  1 << 20,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ChunkSize <= 0 {
		c.ChunkSize = def.ChunkSize
	}
	if c.Overlap < 0 || c.Overlap >= c.ChunkSize {
		c.Overlap = c.ChunkSize / 5
	}
	if c.BatchSize <= 0 {
		c.BatchSize = def.BatchSize
	}
	if c.MaxChars <= 0 {
		c.MaxChars = def.MaxChars
	}
	return c
}

// Ingester writes embedded passages of local files into a named index.
type Ingester struct {
	embedder embedding.Service
	chunks   ChunkWriter
	config   Config
}

func New(embedder embedding.Service, chunks ChunkWriter, cfg Config) *Ingester {
	return &Ingester{embedder: embedder, chunks: chunks, config: cfg.withDefaults()}
}

// IngestFile stores every passage of the file at path under index and
// returns how many were written. Passages keep the file's base name as source.
func (i *Ingester) IngestFile(ctx context.Context, index, path string) (int, error) {
	if index == "" {
		return 0, fmt.Errorf("ingest %s: index name is required", path)
	}
	text, err := docread.ReadText(path, i.config.MaxChars)
	if err != nil {
		return 0, fmt.Errorf("ingest %s: %w", path, err)
	}
	passages := Split(text, i.config.ChunkSize, i.config.Overlap)
	if len(passages) == 0 {
		slog.Warn("ingest: no text extracted", "path", path)
		return 0, nil
	}

	source := filepath.Base(path)
	written := 0
	for start := 0; start < len(passages); start += i.config.BatchSize {
		end := min(start+i.config.BatchSize, len(passages))
		batch := passages[start:end]

		vectors, err := i.embedder.EmbedBatch(ctx, batch)
		if err != nil {
			return written, fmt.Errorf("ingest %s: embed passages %d-%d: %w", source, start, end-1, err)
		}
		for j, content := range batch {
			if _, err := i.chunks.UpsertDocumentChunk(ctx, &store.DocumentChunk{
				Index:     index,
				Source:    source,
				Content:   content,
				Embedding: vectors[j],
			}); err != nil {
				return written, fmt.Errorf("ingest %s: %w", source, err)
			}
			written++
		}
	}

	slog.Info("ingest: file indexed", "index", index, "source", source, "chunks", written)
	return written, nil
}

// Split cuts text into passages of at most size runes, each sharing overlap
// runes with the previous one. Cuts prefer a paragraph break, then a sentence
// end, then whitespace, within the second half of the window.
func Split(text string, size, overlap int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultConfig().ChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}

	var out []string
	for start := 0; start < len(runes); {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = breakAt(runes, start, end)
		}
		if part := strings.TrimSpace(string(runes[start:end])); part != "" {
			out = append(out, part)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func breakAt(runes []rune, start, end int) int {
	if end-start < 4 {
		return end
	}
	floor := start + (end-start)/2
	for i := end; i > floor; i-- {
		if runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := end; i > floor; i-- {
		switch runes[i-1] {
		case '。', '！', '？':
			return i
		case '.', '!', '?':
			if unicode.IsSpace(runes[i]) {
				return i
			}
		}
	}
	for i := end; i > floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return end
}
