package mssql

import (
	"fmt"
	"strings"

	"greenroute/internal/storage"
)

// MapType maps a logical storage type into a SQL Server column type.
// Unknown kinds fall back to NVARCHAR(MAX).
func MapType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case storage.TypeInt:
		return "BIGINT"
	case storage.TypeBool:
		return "BIT"
	case storage.TypeDate:
		return "DATE"
	case storage.TypeFloat:
		return "FLOAT"
	default:
		return "NVARCHAR(MAX)"
	}
}

// BuildCreateTableSQL returns a T-SQL batch that creates the table when it
// does not exist yet:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	  CREATE TABLE [schema].[table] (
//	    [col1] TYPE [NOT NULL],
//	    ...
//	  );
//	END;
func BuildCreateTableSQL(t storage.TableDef) (string, error) {
	if err := t.Validate(); err != nil {
		return "", fmt.Errorf("mssql %w", err)
	}
	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		def := msIdent(strings.TrimSpace(c.Name)) + " " + MapType(c.Type)
		if !c.Nullable {
			def += " NOT NULL"
		}
		cols = append(cols, def)
	}
	fqn := msFQN(t.FQN)
	return fmt.Sprintf(
		"IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n  CREATE TABLE %s (\n    %s\n  );\nEND;",
		strings.ReplaceAll(fqn, "'", "''"),
		fqn,
		strings.Join(cols, ",\n    "),
	), nil
}
