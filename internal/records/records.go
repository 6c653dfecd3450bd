// Package records holds the untyped row model shared by the parser and the
// schema normalizer.
package records

import "strings"

// Record is a single parsed row keyed by column name. Values are either a
// string or nil (empty cell).
type Record map[string]any

// String returns the trimmed string value of key, or "" when the key is
// absent, nil, or not a string.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool { return r.String(key) != "" }

// Table is an ordered set of columns plus the rows that carry them. Column
// order is the header order of the source file.
type Table struct {
	Columns []string
	Rows    []Record
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// HasColumn reports whether name is one of the table's columns.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Rename returns a copy of t where each column is renamed through names
// (old -> new). Columns absent from names keep their name. The receiver and
// its rows are not modified.
func (t Table) Rename(names map[string]string) Table {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if n, ok := names[c]; ok {
			cols[i] = n
		} else {
			cols[i] = c
		}
	}
	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Record, len(r))
		for k, v := range r {
			if n, ok := names[k]; ok {
				nr[n] = v
			} else {
				nr[k] = v
			}
		}
		rows[i] = nr
	}
	return Table{Columns: cols, Rows: rows}
}

// WithNullColumn returns a copy of t with an extra column name whose value
// is nil in every row. If the column already exists t is returned unchanged.
func (t Table) WithNullColumn(name string) Table {
	if t.HasColumn(name) {
		return t
	}
	cols := append(append(make([]string, 0, len(t.Columns)+1), t.Columns...), name)
	rows := make([]Record, len(t.Rows))
	for i, r := range t.Rows {
		nr := make(Record, len(r)+1)
		for k, v := range r {
			nr[k] = v
		}
		nr[name] = nil
		rows[i] = nr
	}
	return Table{Columns: cols, Rows: rows}
}
