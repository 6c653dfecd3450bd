package postgres

import (
	"fmt"
	"strings"

	"greenroute/internal/storage"
)

// MapType normalizes a logical storage type into a Postgres SQL type.
//
//	"int"   -> BIGINT
//	"float" -> DOUBLE PRECISION
//	"bool"  -> BOOLEAN
//	"date"  -> DATE
//	else    -> TEXT
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "BIGINT"
	case storage.TypeFloat:
		return "DOUBLE PRECISION"
	case storage.TypeBool:
		return "BOOLEAN"
	case storage.TypeDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

// BuildCreateTableSQL builds a deterministic CREATE TABLE IF NOT EXISTS
// statement with double-quoted identifiers.
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("postgres %w", err)
	}
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(quoteIdent(strings.TrimSpace(c.Name)))
		sb.WriteByte(' ')
		sb.WriteString(MapType(c.Type))
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		quoteFQN(t.FQN),
		strings.Join(cols, ",\n  "),
	), nil
}

// quoteIdent quotes a single identifier segment for Postgres, e.g.:
//
//	quoteIdent(`ccpv`)       => `"ccpv"`
//	quoteIdent(`weird"name`) => `"weird""name"`
func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// quoteFQN quotes a possibly schema-qualified name like "public.shipments"
// to `"public"."shipments"`.
func quoteFQN(f string) string {
	parts := storage.SplitFQN(f)
	for i, p := range parts {
		parts[i] = quoteIdent(p)
	}
	return strings.Join(parts, ".")
}
