// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and modernc.org/sqlite. Rows are written as multi-row INSERTs
// built with squirrel, inside one transaction per CopyFrom call.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// batchRows caps the rows per INSERT statement so the bound parameter count
// stays well under SQLite's variable limit.
const batchRows = 500

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.
	// "file:greenroute.db?cache=shared" or ":memory:".
	DSN string

	// Table is the target table. "main.shipments" style names are accepted.
	Table string
}

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection and returns a Repository plus a
// Close function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db, cfg: cfg}, func() { db.Close() }, nil
}

// CopyFrom inserts rows into the configured table in a single transaction.
// Every row must have len(columns) values. time.Time values are stored as
// ISO-8601 dates.
func (r *Repository) CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quoteIdent(c)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}

	var inserted int64
	for start := 0; start < len(rows); start += batchRows {
		end := start + batchRows
		if end > len(rows) {
			end = len(rows)
		}
		ins := sq.Insert(quoteFQN(r.cfg.Table)).Columns(quoted...)
		for i, row := range rows[start:end] {
			if len(row) != len(columns) {
				_ = tx.Rollback()
				return 0, fmt.Errorf("sqlite: CopyFrom: row %d has %d values, want %d", start+i, len(row), len(columns))
			}
			vals := make([]any, len(row))
			for j, v := range row {
				vals[j] = toSQLiteVal(v)
			}
			ins = ins.Values(vals...)
		}
		stmt, args, err := ins.ToSql()
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, stmt, args...)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			n = int64(end - start)
		}
		inserted += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec executes a single statement (typically DDL).
func (r *Repository) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for read-back in tests and tooling.
func (r *Repository) DB() *sql.DB { return r.db }

func toSQLiteVal(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t.Format("2006-01-02")
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return v
	}
}
