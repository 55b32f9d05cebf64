package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hrygo/agenthub/store/db/postgres"
)

type fakeEmbedder struct {
	err     error
	batches [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 2 }

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newMockDB(t *testing.T) (*postgres.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return postgres.NewFromDB(db), mock
}

func TestSplit(t *testing.T) {
	text := "Vacation is 20 days.\n\nSick leave is 10 days."
	assert.Equal(t, []string{"Vacation is 20 days.", "Sick leave is 10 days."}, Split(text, 30, 0))
	assert.Equal(t, []string{"short"}, Split("  short \n", 30, 5))
	assert.Nil(t, Split(" \n\t", 30, 5))

	// Sentence end beats a mid-sentence cut.
	parts := Split("One two three. Four five six seven eight", 20, 0)
	assert.Equal(t, "One two three.", parts[0])

	// No boundary at all: hard cut at size.
	parts = Split(strings.Repeat("x", 25), 10, 2)
	assert.Equal(t, []string{"xxxxxxxxxx", "xxxxxxxxxx", "xxxxxxxxx"}, parts)
}

func TestSplit_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		words := rapid.SliceOfN(rapid.SampledFrom([]string{"claim", "police.", "报告。", "\n\n", " ", "damage", "VIN"}), 0, 200).Draw(rt, "words")
		text := strings.Join(words, " ")
		size := rapid.IntRange(4, 80).Draw(rt, "size")
		overlap := rapid.IntRange(0, size-1).Draw(rt, "overlap")

		parts := Split(text, size, overlap)
		if strings.TrimSpace(text) == "" {
			assert.Empty(rt, parts)
			return
		}
		require.NotEmpty(rt, parts)
		for _, p := range parts {
			assert.LessOrEqual(rt, utf8.RuneCountInString(p), size)
			assert.NotEmpty(rt, p)
			assert.Contains(rt, text, p)
		}
		last := parts[len(parts)-1]
		assert.True(rt, strings.HasSuffix(strings.TrimSpace(text), last))
	})
}

func TestIngestFile(t *testing.T) {
	path := writeFile(t, "policy.txt", "Vacation is 20 days.\n\nSick leave is 10 days.")
	db, mock := newMockDB(t)
	for i, content := range []string{"Vacation is 20 days.", "Sick leave is 10 days."} {
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_chunk")).
			WithArgs("handbook", "policy.txt", content, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
	}

	embedder := &fakeEmbedder{}
	ing := New(embedder, db, Config{ChunkSize: 30, Overlap: 0, BatchSize: 1})

	n, err := ing.IngestFile(context.Background(), "handbook", path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, [][]string{{"Vacation is 20 days."}, {"Sick leave is 10 days."}}, embedder.batches)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestFile_Errors(t *testing.T) {
	path := writeFile(t, "policy.txt", "Vacation is 20 days.\n\nSick leave is 10 days.")

	t.Run("embedding failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		ing := New(&fakeEmbedder{err: errors.New("quota exceeded")}, db, Config{ChunkSize: 30})
		n, err := ing.IngestFile(context.Background(), "handbook", path)
		assert.ErrorContains(t, err, "quota exceeded")
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("write failure keeps count", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_chunk")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_chunk")).
			WillReturnError(assert.AnError)

		ing := New(&fakeEmbedder{}, db, Config{ChunkSize: 30, Overlap: 0})
		n, err := ing.IngestFile(context.Background(), "handbook", path)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Equal(t, 1, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unsupported file", func(t *testing.T) {
		db, _ := newMockDB(t)
		_, err := New(&fakeEmbedder{}, db, DefaultConfig()).IngestFile(context.Background(), "handbook", writeFile(t, "run.exe", "MZ"))
		assert.Error(t, err)
	})

	t.Run("missing index", func(t *testing.T) {
		db, _ := newMockDB(t)
		_, err := New(&fakeEmbedder{}, db, DefaultConfig()).IngestFile(context.Background(), "", path)
		assert.ErrorContains(t, err, "index name is required")
	})
}
