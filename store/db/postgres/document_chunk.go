package postgres

import (
	"context"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/store"
)

// UpsertDocumentChunk inserts an embedded passage into a search index.
func (d *DB) UpsertDocumentChunk(ctx context.Context, chunk *store.DocumentChunk) (*store.DocumentChunk, error) {
	if chunk.CreatedTs == 0 {
		chunk.CreatedTs = time.Now().Unix()
	}
	stmt := `
		INSERT INTO document_chunk (index_name, source, content, embedding, created_ts)
		VALUES (` + placeholders(5) + `)
		RETURNING id`

	vector := pgvector.NewVector(chunk.Embedding)
	if err := d.db.QueryRowContext(ctx, stmt,
		chunk.Index,
		chunk.Source,
		chunk.Content,
		vector,
		chunk.CreatedTs,
	).Scan(&chunk.ID); err != nil {
		return nil, errors.Wrap(err, "failed to upsert document chunk")
	}
	return chunk, nil
}

// SearchDocumentChunks returns the passages of an index nearest to the vector
// by cosine distance, best first.
func (d *DB) SearchDocumentChunks(ctx context.Context, opts *store.DocumentSearchOptions) ([]*store.DocumentChunkWithScore, error) {
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid search options")
	}

	query := `
		SELECT id, index_name, source, content, created_ts, 1 - (embedding <=> ` + placeholder(1) + `) AS score
		FROM document_chunk
		WHERE index_name = ` + placeholder(2) + `
		ORDER BY embedding <=> ` + placeholder(1) + `
		LIMIT ` + placeholder(3)

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(opts.Vector), opts.Index, opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search document chunks")
	}
	defer rows.Close()

	results := []*store.DocumentChunkWithScore{}
	for rows.Next() {
		var chunk store.DocumentChunk
		var score float32
		if err := rows.Scan(
			&chunk.ID,
			&chunk.Index,
			&chunk.Source,
			&chunk.Content,
			&chunk.CreatedTs,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan document chunk")
		}
		results = append(results, &store.DocumentChunkWithScore{Chunk: &chunk, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
