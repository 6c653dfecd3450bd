package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Logical column types understood by every backend's DDL builder.
const (
	TypeText  = "text"
	TypeFloat = "float"
	TypeInt   = "int"
	TypeBool  = "bool"
	TypeDate  = "date"
)

// ColumnDef is one column of a table to create.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// TableDef is a backend-agnostic table description. FQN may be
// schema-qualified ("analytics.shipments").
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Validate reports an empty name, no columns, or an unnamed column.
func (t TableDef) Validate() error {
	if strings.TrimSpace(t.FQN) == "" {
		return fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("ddl: at least one column is required")
	}
	for i, c := range t.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("ddl: column %d of %s has no name", i, t.FQN)
		}
	}
	return nil
}

// ColumnNames returns the column names in order.
func (t TableDef) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// DDLBuilder renders an idempotent CREATE TABLE statement for one dialect.
type DDLBuilder func(t TableDef) (string, error)

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBuilder{}
)

// RegisterDDL installs (or replaces) the DDL builder for kind.
func RegisterDDL(kind string, fn DDLBuilder) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// CreateTableSQL renders t with the builder registered for kind.
func CreateTableSQL(kind string, t TableDef) (string, error) {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("no DDL builder registered for storage.kind=%q", kind)
	}
	if err := t.Validate(); err != nil {
		return "", err
	}
	return fn(t)
}

// Execer runs a single statement. Every Repository is one.
type Execer interface {
	Exec(ctx context.Context, sql string) error
}

// EnsureTable creates t through repo when it does not exist yet.
func EnsureTable(ctx context.Context, kind string, repo Execer, t TableDef) error {
	stmt, err := CreateTableSQL(kind, t)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("create table %s: %w", t.FQN, err)
	}
	return nil
}

// SplitFQN splits "schema.table" into its non-empty, trimmed segments.
func SplitFQN(fqn string) []string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
