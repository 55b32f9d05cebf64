package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/agenthub/internal/profile"
	"github.com/hrygo/agenthub/store"
)

type DB struct {
	db      *sql.DB
	profile *profile.Profile
}

var _ store.Driver = (*DB)(nil)

// NewDB opens the conversation database at profile.DSN.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	return Open(profile.DSN, profile)
}

// Open connects to a PostgreSQL database. It is also used for the
// pgvector database behind the search indexes.
func Open(dsn string, profile *profile.Profile) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	return &DB{db: db, profile: profile}, nil
}

// NewFromDB wraps an existing connection pool.
func NewFromDB(db *sql.DB) *DB {
	return &DB{db: db}
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation_turn (
	id BIGSERIAL PRIMARY KEY,
	uid TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	agents JSONB NOT NULL DEFAULT '[]',
	hold_session BOOLEAN NOT NULL DEFAULT FALSE,
	held_by JSONB NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL
);
ALTER TABLE conversation_turn ADD COLUMN IF NOT EXISTS held_by JSONB NOT NULL DEFAULT '[]';
CREATE INDEX IF NOT EXISTS idx_conversation_turn_session ON conversation_turn (session_id, id);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create conversation_turn table")
	}
	return nil
}

// MigrateDocuments creates the pgvector table used by the search indexes.
func (d *DB) MigrateDocuments(ctx context.Context, dim int) error {
	stmt := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS document_chunk (
	id BIGSERIAL PRIMARY KEY,
	index_name TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL,
	embedding vector(%d) NOT NULL,
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_document_chunk_index ON document_chunk (index_name);
`, dim)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to create document_chunk table")
	}
	return nil
}

func placeholder(n int) string {
	return "$" + fmt.Sprint(n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}
