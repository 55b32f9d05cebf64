package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

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
	// Ensure a DSN is set before attempting to open the database.
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}

	sqliteDB, err := Open(profile.DSN)
	if err != nil {
		return nil, err
	}

	driver := DB{db: sqliteDB, profile: profile}
	return &driver, nil
}

// Open opens a SQLite file with the pragmas every caller wants.
//
// Notes:
//   - When using the `modernc.org/sqlite` driver, each pragma must be prefixed with `_pragma=`.
//   - Journal mode WAL prevents reader/writer locking issues.
func Open(dsn string) (*sql.DB, error) {
	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}
	sqliteDB, err := sql.Open("sqlite", dsn+separator+"_pragma=foreign_keys(0)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", dsn)
	}

	// SQLite: single connection is optimal with WAL
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)
	return sqliteDB, nil
}

// OpenReadOnly opens an existing SQLite file for queries only.
// Used by agents that run model-written SQL against reference datasets.
func OpenReadOnly(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro&_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open read-only db: %s", path)
	}
	db.SetMaxOpenConns(4)
	return db, nil
}

func (d *DB) GetDB() *sql.DB {
	return d.db
}

func (d *DB) Close() error {
	return d.db.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation_turn (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uid TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	agents TEXT NOT NULL DEFAULT '[]',
	hold_session INTEGER NOT NULL DEFAULT 0,
	held_by TEXT NOT NULL DEFAULT '[]',
	created_ts BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_conversation_turn_session ON conversation_turn (session_id, id);
`

func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return errors.Wrap(err, "failed to create conversation_turn table")
	}
	// Tables created before held_by existed.
	if _, err := d.db.ExecContext(ctx, `ALTER TABLE conversation_turn ADD COLUMN held_by TEXT NOT NULL DEFAULT '[]'`); err != nil &&
		!strings.Contains(err.Error(), "duplicate column") {
		return errors.Wrap(err, "failed to add held_by column")
	}
	return nil
}
