package csv

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"greenroute/internal/records"
)

/*
TestParse_TableDriven verifies the parser contract:

  - Header names are kept verbatim; renaming belongs to the normalizer.
  - Empty cells become nil.
  - Rows whose width differs from the header are skipped and counted.
  - TrimSpace trims values when enabled.
*/
func TestParse_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		opt         Options
		in          string
		wantCols    []string
		wantRows    []records.Record
		wantSkipped int
	}{
		{
			name:     "basic_with_empty_cell",
			in:       "Order_ID,Origins\nO1,Mumbai\nO2,\n",
			wantCols: []string{"Order_ID", "Origins"},
			wantRows: []records.Record{
				{"Order_ID": "O1", "Origins": "Mumbai"},
				{"Order_ID": "O2", "Origins": nil},
			},
		},
		{
			name:     "short_and_long_rows_skipped",
			in:       "a,b\n1,2\n3\n4,5,6\n7,8\n",
			wantCols: []string{"a", "b"},
			wantRows: []records.Record{
				{"a": "1", "b": "2"},
				{"a": "7", "b": "8"},
			},
			wantSkipped: 2,
		},
		{
			name:     "trim_space",
			opt:      Options{TrimSpace: true},
			in:       "a,b\n  x , \n",
			wantCols: []string{"a", "b"},
			wantRows: []records.Record{{"a": "x", "b": nil}},
		},
		{
			name:     "semicolon_delimiter",
			opt:      Options{Comma: ';'},
			in:       "a;b\n1;2\n",
			wantCols: []string{"a", "b"},
			wantRows: []records.Record{{"a": "1", "b": "2"}},
		},
		{
			name:     "duplicate_headers_suffixed",
			in:       "a,a,b\n1,2,3\n",
			wantCols: []string{"a", "a_2", "b"},
			wantRows: []records.Record{{"a": "1", "a_2": "2", "b": "3"}},
		},
		{
			name:        "bad_quote_skipped",
			in:          "a,b\n1,\"x\"y\n2,3\n",
			wantCols:    []string{"a", "b"},
			wantRows:    []records.Record{{"a": "2", "b": "3"}},
			wantSkipped: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := NewParser(tt.opt).Parse(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(got.Table.Columns, tt.wantCols) {
				t.Errorf("columns = %v, want %v", got.Table.Columns, tt.wantCols)
			}
			if !reflect.DeepEqual(got.Table.Rows, tt.wantRows) {
				t.Errorf("rows = %#v, want %#v", got.Table.Rows, tt.wantRows)
			}
			if len(got.Skipped) != tt.wantSkipped {
				t.Errorf("skipped = %d (%v), want %d", len(got.Skipped), got.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestParse_EmptyInputHasNoHeader(t *testing.T) {
	t.Parallel()

	_, err := NewParser(Options{}).Parse(strings.NewReader(""))
	if !errors.Is(err, ErrNoHeader) {
		t.Fatalf("Parse(\"\") error = %v, want ErrNoHeader", err)
	}
}

func TestParse_SkippedRowsCarryLineNumbers(t *testing.T) {
	t.Parallel()

	got, err := NewParser(Options{}).Parse(strings.NewReader("a,b\n1,2\n3\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got.Skipped) != 1 || got.Skipped[0].Line != 3 {
		t.Fatalf("Skipped = %+v, want one row at line 3", got.Skipped)
	}
}
