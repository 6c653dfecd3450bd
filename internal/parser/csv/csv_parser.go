// Package csv reads a header-first CSV stream into a records.Table. Rows
// that cannot be parsed, or whose width differs from the header, are
// skipped and counted rather than failing the whole read.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"greenroute/internal/records"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("csv: missing header row")

// Options configures the CSV parser behavior. All fields are optional;
// sensible defaults are applied when a field is zero.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing whitespace from each field value.
	TrimSpace bool

	// LogLimit caps how many skipped rows are logged individually. Zero
	// means 20.
	LogLimit int

	// Logger receives one line per skipped row up to LogLimit. Nil disables
	// logging.
	Logger *zap.Logger
}

// RowError describes a skipped row.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

// Result is the parsed table plus the rows that were skipped.
type Result struct {
	Table   records.Table
	Skipped []RowError
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.LogLimit <= 0 {
		opt.LogLimit = 20
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Parser{opt: opt}
}

// Parse consumes r and returns every well-formed row keyed by the raw
// header names. Empty cells become nil. Header names are returned as found;
// renaming them is the schema normalizer's job.
func (p *Parser) Parse(r io.Reader) (Result, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	// Width is enforced against the header below so one bad row does not
	// abort the read.
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Result{}, ErrNoHeader
	}
	if err != nil {
		return Result{}, fmt.Errorf("read csv header: %w", err)
	}
	headers := uniqueHeaders(header)

	res := Result{Table: records.Table{Columns: headers}}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var line int
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			p.skip(&res, line, err)
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(row) != len(headers) {
			if isBlank(row) {
				continue
			}
			p.skip(&res, line, fmt.Errorf("incorrect number of fields (expected %d, got %d)", len(headers), len(row)))
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[headers[i]] = emptyToNil(val)
		}
		res.Table.Rows = append(res.Table.Rows, rec)
	}
	return res, nil
}

func (p *Parser) skip(res *Result, line int, err error) {
	if len(res.Skipped) < p.opt.LogLimit {
		p.opt.Logger.Warn("csv: skipping row", zap.Int("line", line), zap.Error(err))
	}
	res.Skipped = append(res.Skipped, RowError{Line: line, Err: err})
}

// emptyToNil converts an empty string to nil; all other values are returned as-is.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// uniqueHeaders copies h, suffixing repeated names with _2, _3, ... so each
// column keeps its own key in the row map.
func uniqueHeaders(h []string) []string {
	out := make([]string, len(h))
	seen := make(map[string]int, len(h))
	for i, name := range h {
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s_%d", name, n)
		}
		out[i] = name
	}
	return out
}
