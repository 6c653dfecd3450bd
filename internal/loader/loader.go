// Package loader reads the five logistics sources into normalized tables
// and typed entities. A source that cannot be read is reported and replaced
// by an empty table; loading only fails when nothing at all could be read.
package loader

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"greenroute/internal/datasource"
	"greenroute/internal/datasource/httpds"
	csvparser "greenroute/internal/parser/csv"
	"greenroute/internal/quality"
	"greenroute/internal/records"
	"greenroute/internal/schema"
)

// Options configures Load. All fields are optional.
type Options struct {
	// Dir is joined to relative locations.
	Dir string

	// Locations overrides the default file name of a source with a path or
	// HTTP(S) URL.
	Locations map[schema.Source]string

	// Aliases are extra raw -> canonical header mappings.
	Aliases map[string]string

	// Comma is the CSV delimiter; ',' when zero.
	Comma rune

	// HTTP is used for remote locations. Nil builds a default client.
	HTTP *httpds.Client

	Logger *zap.Logger
}

// Location returns where src is read from under opt.
func (o Options) Location(src schema.Source) string {
	if l := o.Locations[src]; l != "" {
		return l
	}
	return src.DefaultFile()
}

// Loaded is the outcome of reading one source.
type Loaded struct {
	Source    schema.Source
	Location  string
	Available bool
	// Table is the normalized table; required columns the file lacked are
	// present and null.
	Table    records.Table
	Skipped  int
	Warnings []quality.Warning
}

// Result holds every source plus the typed dataset decoded from them.
type Result struct {
	Sources map[schema.Source]Loaded
	Dataset schema.Dataset
}

// Warnings returns the warnings of every source in schema.AllSources order.
func (r Result) Warnings() []quality.Warning {
	var out []quality.Warning
	for _, src := range schema.AllSources {
		out = append(out, r.Sources[src].Warnings...)
	}
	return out
}

// Available reports how many sources could be read.
func (r Result) Available() int {
	n := 0
	for _, l := range r.Sources {
		if l.Available {
			n++
		}
	}
	return n
}

// resolve is replaced in tests.
var resolve = func(location, dir string, client *httpds.Client) datasource.Source {
	return datasource.Resolve(location, dir, client)
}

// Load reads, normalizes and decodes all five sources. It returns
// quality.ErrEmptyDataset when none of them is available, and the context
// error if ctx is canceled mid-load.
func Load(ctx context.Context, opt Options) (Result, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	client := opt.HTTP
	if client == nil {
		client = httpds.NewClient(httpds.Config{Logger: log})
	}
	parser := csvparser.NewParser(csvparser.Options{Comma: opt.Comma, TrimSpace: true, Logger: log})

	res := Result{Sources: make(map[schema.Source]Loaded, len(schema.AllSources))}
	for _, src := range schema.AllSources {
		loc := opt.Location(src)
		l, err := loadOne(ctx, src, resolve(loc, opt.Dir, client), parser, opt.Aliases)
		if err != nil {
			return Result{}, err
		}
		l.Location = loc
		res.Sources[src] = l
		log.Info("loader: source read",
			zap.String("source", string(src)),
			zap.String("location", loc),
			zap.Bool("available", l.Available),
			zap.Int("rows", l.Table.Len()),
			zap.Int("skipped", l.Skipped),
			zap.Int("warnings", len(l.Warnings)))
	}
	if res.Available() == 0 {
		return Result{}, quality.ErrEmptyDataset
	}

	crossCheck(&res)
	res.Dataset = decode(&res)
	return res, nil
}

func loadOne(ctx context.Context, src schema.Source, ds datasource.Source, p *csvparser.Parser, aliases map[string]string) (Loaded, error) {
	l := Loaded{Source: src}
	parsed, err := read(ctx, ds, p)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Loaded{}, ctxErr
		}
		l.Warnings = append(l.Warnings, quality.Warning{
			Kind:    quality.SourceUnavailable,
			Source:  string(src),
			Message: err.Error(),
		})
		l.Table = emptyTable(src)
		return l, nil
	}

	l.Available = true
	if n := len(parsed.Skipped); n > 0 {
		l.Skipped = n
		l.Warnings = append(l.Warnings, quality.Warning{
			Kind:    quality.MalformedRow,
			Source:  string(src),
			Message: fmt.Sprintf("malformed rows skipped, first at line %d", parsed.Skipped[0].Line),
			Count:   n,
		})
	}

	norm := schema.Normalize(src, parsed.Table, aliases)
	for _, raw := range norm.Collisions {
		l.Warnings = append(l.Warnings, quality.Warning{
			Kind:    quality.SchemaMismatch,
			Source:  string(src),
			Column:  raw,
			Message: "duplicate column after alias resolution; later column kept under its own name",
		})
	}
	t := norm.Table
	for _, col := range norm.Missing {
		l.Warnings = append(l.Warnings, quality.Warning{
			Kind:    quality.SchemaMismatch,
			Source:  string(src),
			Column:  col,
			Message: "required column missing; values treated as null",
			Count:   t.Len(),
		})
		t = t.WithNullColumn(col)
	}
	l.Table = t
	return l, nil
}

func read(ctx context.Context, ds datasource.Source, p *csvparser.Parser) (csvparser.Result, error) {
	rc, err := ds.Open(ctx)
	if err != nil {
		return csvparser.Result{}, err
	}
	defer rc.Close()
	res, err := p.Parse(rc)
	if errors.Is(err, csvparser.ErrNoHeader) {
		return csvparser.Result{}, fmt.Errorf("empty source: %w", err)
	}
	return res, err
}

func emptyTable(src schema.Source) records.Table {
	return records.Table{Columns: append([]string(nil), src.RequiredColumns()...)}
}

// crossCheck flags an orders table that carries no route reference when the
// routes table offers no order_id to join on either: every route join would
// then miss.
func crossCheck(res *Result) {
	orders, routes := res.Sources[schema.Orders], res.Sources[schema.Routes]
	if !orders.Available || !routes.Available {
		return
	}
	if orders.Table.HasColumn(schema.ColRouteID) || routes.Table.HasColumn(schema.ColOrderID) {
		return
	}
	orders.Warnings = append(orders.Warnings, quality.Warning{
		Kind:    quality.SchemaMismatch,
		Source:  string(schema.Orders),
		Column:  schema.ColRouteID,
		Message: "no route reference in orders and no order_id in routes; routes cannot be joined",
		Count:   orders.Table.Len(),
	})
	res.Sources[schema.Orders] = orders
}

func decode(res *Result) schema.Dataset {
	var ds schema.Dataset
	add := func(src schema.Source, ws []quality.Warning) {
		l := res.Sources[src]
		l.Warnings = append(l.Warnings, ws...)
		res.Sources[src] = l
	}
	var ws []quality.Warning
	ds.Orders, ws = schema.DecodeOrders(res.Sources[schema.Orders].Table)
	add(schema.Orders, ws)
	ds.Routes, ws = schema.DecodeRoutes(res.Sources[schema.Routes].Table)
	add(schema.Routes, ws)
	ds.Vehicles, ws = schema.DecodeVehicles(res.Sources[schema.Vehicles].Table)
	add(schema.Vehicles, ws)
	ds.Performance, ws = schema.DecodePerformance(res.Sources[schema.Deliveries].Table)
	add(schema.Deliveries, ws)
	ds.Costs, ws = schema.DecodeCosts(res.Sources[schema.Costs].Table)
	add(schema.Costs, ws)
	return ds
}
