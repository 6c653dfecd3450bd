package sqlite

import (
	"fmt"
	"strings"

	"greenroute/internal/storage"
)

// MapType maps a logical storage type to a SQLite column affinity. Dates
// are stored as ISO-8601 text and booleans as 0/1 integers.
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt, storage.TypeBool:
		return "INTEGER"
	case storage.TypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL renders
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL],
//	  ...
//	);
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("sqlite %w", err)
	}
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def := quoteIdent(strings.TrimSpace(c.Name)) + " " + MapType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(t.FQN), strings.Join(cols, ",\n  ")), nil
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func quoteFQN(fqn string) string {
	parts := storage.SplitFQN(fqn)
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
