// Package export serializes merged records: a reproducible CSV with a fixed
// column order and a content digest, and a database sink built on the
// storage registry.
//
// CSV formatting is locale independent: numbers use Go's shortest
// round-trip decimal form without exponent, booleans are true/false,
// missing or undefined values are empty cells and dates are YYYY-MM-DD.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"
	"github.com/zeebo/xxh3"

	"greenroute/internal/schema"
	"greenroute/internal/storage"
)

// Columns is the export column order.
var Columns = mustHeader()

func mustHeader() []string {
	h, err := csvutil.Header(Row{}, "csv")
	if err != nil {
		panic(fmt.Sprintf("export: header: %v", err))
	}
	return h
}

// Digest identifies the bytes of one export. Two runs over the same input
// produce the same digest.
type Digest struct {
	Rows  int    `json:"rows"`
	Bytes int64  `json:"bytes"`
	XXH3  uint64 `json:"xxh3"`
}

// String renders the hash as 16 hex digits.
func (d Digest) String() string { return fmt.Sprintf("%016x", d.XXH3) }

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// WriteCSV writes a header row and one row per record to w.
func WriteCSV(w io.Writer, recs []schema.MergedRecord) (Digest, error) {
	return WriteRows(w, FromRecords(recs))
}

// WriteRows is WriteCSV for already flattened rows.
func WriteRows(w io.Writer, rows []Row) (Digest, error) {
	h := xxh3.New()
	cw := &countingWriter{w: io.MultiWriter(w, h)}
	cv := csv.NewWriter(cw)
	if err := cv.Write(Columns); err != nil {
		return Digest{}, fmt.Errorf("export: header: %w", err)
	}
	enc := csvutil.NewEncoder(cv)
	enc.AutoHeader = false
	for i := range rows {
		if err := enc.Encode(rows[i]); err != nil {
			return Digest{}, fmt.Errorf("export: row %d: %w", i, err)
		}
	}
	cv.Flush()
	if err := cv.Error(); err != nil {
		return Digest{}, fmt.Errorf("export: flush: %w", err)
	}
	return Digest{Rows: len(rows), Bytes: cw.n, XXH3: h.Sum64()}, nil
}

// ReadCSV parses an export produced by WriteCSV. Unknown columns are
// ignored; known columns may appear in any order.
func ReadCSV(r io.Reader) ([]Row, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("export: empty input")
		}
		return nil, fmt.Errorf("export: header: %w", err)
	}
	var out []Row
	for {
		var row Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("export: line %d: %w", len(out)+2, err)
		}
		out = append(out, row)
	}
}

// columnTypes maps non-text export columns to their storage type.
var columnTypes = map[string]string{
	"order_date":              storage.TypeDate,
	"order_value_usd":         storage.TypeFloat,
	"age_years":               storage.TypeFloat,
	"distance_km":             storage.TypeFloat,
	"distance_imputed":        storage.TypeBool,
	"co2_emissions_kg_per_km": storage.TypeFloat,
	"co2_factor_imputed":      storage.TypeBool,
	"total_co2_kg":            storage.TypeFloat,
	"ccpv":                    storage.TypeFloat,
	"on_time":                 storage.TypeBool,
	"delay_days":              storage.TypeFloat,
	"total_cost":              storage.TypeFloat,
}

// requiredColumns are never NULL in the export table.
var requiredColumns = map[string]bool{
	"order_id":           true,
	"distance_imputed":   true,
	"co2_factor_imputed": true,
	"total_co2_kg":       true,
}

// TableDef describes the export table for database sinks.
func TableDef(fqn string) storage.TableDef {
	cols := make([]storage.ColumnDef, len(Columns))
	for i, name := range Columns {
		typ, ok := columnTypes[name]
		if !ok {
			typ = storage.TypeText
		}
		cols[i] = storage.ColumnDef{Name: name, Type: typ, Nullable: !requiredColumns[name]}
	}
	return storage.TableDef{FQN: fqn, Columns: cols}
}

// StorageOptions selects the database sink for ToStorage.
type StorageOptions struct {
	Kind        string
	DSN         string
	Table       string
	CreateTable bool
}

// ToStorage opens the sink described by opt, optionally creates the table,
// and inserts one row per record. It returns the number of rows written.
func ToStorage(ctx context.Context, opt StorageOptions, recs []schema.MergedRecord) (int64, error) {
	repo, err := storage.New(ctx, storage.Config{Kind: opt.Kind, DSN: opt.DSN, Table: opt.Table, Columns: Columns})
	if err != nil {
		return 0, fmt.Errorf("export: open %s: %w", opt.Kind, err)
	}
	defer repo.Close()
	if opt.CreateTable {
		if err := storage.EnsureTable(ctx, opt.Kind, repo, TableDef(opt.Table)); err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
	}
	return WriteRepository(ctx, repo, recs)
}

// WriteRepository inserts recs into an open repository.
func WriteRepository(ctx context.Context, repo storage.Repository, recs []schema.MergedRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, m := range recs {
		rows[i] = FromRecord(m).values()
	}
	n, err := repo.CopyFrom(ctx, Columns, rows)
	if err != nil {
		return n, fmt.Errorf("export: copy: %w", err)
	}
	return n, nil
}
