// Package sqlquery answers questions about a relational dataset by letting
// the model write one read-only SELECT. It backs both the sql and the viz
// agents.
package sqlquery

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DefaultMaxRows caps how many rows a single statement may return.
const DefaultMaxRows = 200

// ErrNotReadOnly is returned for anything other than a single SELECT.
var ErrNotReadOnly = errors.New("only a single SELECT statement is allowed")

var writeKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|attach|detach|pragma|vacuum|reindex)\b`)

// CheckReadOnly normalises a model-written statement and rejects anything
// that is not a single SELECT (or WITH ... SELECT).
func CheckReadOnly(stmt string) (string, error) {
	stmt = strings.TrimSpace(stmt)
	stmt = strings.TrimSpace(strings.TrimRight(stmt, "; \n\t"))
	if stmt == "" {
		return "", ErrNotReadOnly
	}
	if strings.Contains(stmt, ";") {
		return "", errors.Wrap(ErrNotReadOnly, "multiple statements")
	}
	head := strings.ToLower(strings.Fields(stmt)[0])
	if head != "select" && head != "with" {
		return "", errors.Wrapf(ErrNotReadOnly, "statement starts with %q", head)
	}
	if kw := writeKeyword.FindString(stmt); kw != "" {
		return "", errors.Wrapf(ErrNotReadOnly, "statement contains %q", strings.ToUpper(kw))
	}
	return stmt, nil
}

// Rows is a fully materialised result set.
type Rows struct {
	Columns   []string
	Values    [][]any
	Truncated bool
}

// Len returns the number of rows.
func (r *Rows) Len() int { return len(r.Values) }

// Markdown renders up to limit rows as a table. limit <= 0 renders all.
func (r *Rows) Markdown(limit int) string {
	if len(r.Columns) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(r.Columns), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(r.Columns)) + "\n")
	for i, row := range r.Values {
		if limit > 0 && i >= limit {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = FormatValue(v)
		}
		b.WriteString("| " + strings.Join(escapeCells(cells), " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatValue renders a scanned SQL value for display.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(x)
	case float64:
		return fmt.Sprintf("%g", x)
	default:
		return fmt.Sprint(x)
	}
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		out[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	return out
}

// Database runs checked statements against a read-only SQLite handle.
type Database struct {
	db      *sql.DB
	maxRows int

	schemaOnce sync.Once
	schema     string
	schemaErr  error
}

// NewDatabase wraps db. Open it with sqlite.OpenReadOnly.
func NewDatabase(db *sql.DB, maxRows int) *Database {
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	return &Database{db: db, maxRows: maxRows}
}

// Schema returns the CREATE statements of every user table, loaded once.
func (d *Database) Schema(ctx context.Context) (string, error) {
	d.schemaOnce.Do(func() {
		d.schema, d.schemaErr = d.loadSchema(ctx)
	})
	return d.schema, d.schemaErr
}

func (d *Database) loadSchema(ctx context.Context) (string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' AND sql IS NOT NULL ORDER BY name`)
	if err != nil {
		return "", errors.Wrap(err, "failed to read schema")
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var ddl string
		if err := rows.Scan(&ddl); err != nil {
			return "", errors.Wrap(err, "failed to scan schema")
		}
		parts = append(parts, strings.TrimSpace(ddl)+";")
	}
	if err := rows.Err(); err != nil {
		return "", errors.Wrap(err, "failed to read schema")
	}
	return strings.Join(parts, "\n\n"), nil
}

// Query checks stmt and runs it.
func (d *Database) Query(ctx context.Context, stmt string) (*Rows, error) {
	stmt, err := CheckReadOnly(stmt)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := &Rows{Columns: cols}
	for rows.Next() {
		if len(out.Values) == d.maxRows {
			out.Truncated = true
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out.Values = append(out.Values, vals)
	}
	return out, rows.Err()
}

// Close closes the underlying handle.
func (d *Database) Close() error {
	return d.db.Close()
}
