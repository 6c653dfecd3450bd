// Package pipeline runs one full greenroute invocation: load the five
// sources, merge them on Order, impute, derive the CO2 metrics, rank the
// recommendations and compute the summary of the filtered selection.
//
// Run returns an immutable Snapshot; nothing is cached between calls and
// every call recomputes from the inputs.
package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"greenroute/internal/config"
	"greenroute/internal/dataset"
	"greenroute/internal/datasource/httpds"
	"greenroute/internal/emissions"
	"greenroute/internal/impute"
	"greenroute/internal/insight"
	"greenroute/internal/loader"
	"greenroute/internal/merge"
	"greenroute/internal/metrics"
	"greenroute/internal/quality"
	"greenroute/internal/recommend"
	"greenroute/internal/schema"
)

// Options configures Run.
type Options struct {
	// Job labels logs and metrics; "greenroute" when empty.
	Job string

	Load loader.Options

	// VehicleTypes and Priorities select the records summarized and
	// exported. Empty selects everything.
	VehicleTypes []string
	Priorities   []string

	// TopRoutes is the number of high-emission routes; 0 means 5.
	TopRoutes int

	Logger *zap.Logger
}

// OptionsFromConfig maps a run configuration onto Options.
func OptionsFromConfig(cfg config.Run, log *zap.Logger) (Options, error) {
	locs := make(map[schema.Source]string, len(cfg.Data.Sources))
	for name, loc := range cfg.Data.Sources {
		src, err := schema.ParseSource(name)
		if err != nil {
			return Options{}, fmt.Errorf("pipeline: data.sources: %w", err)
		}
		if loc != "" {
			locs[src] = loc
		}
	}

	var headers http.Header
	if len(cfg.HTTP.Headers) > 0 {
		headers = make(http.Header, len(cfg.HTTP.Headers))
		for k, v := range cfg.HTTP.Headers {
			headers.Set(k, v)
		}
	}
	client := httpds.NewClient(httpds.Config{
		Timeout:            cfg.HTTP.Timeout.Duration,
		MaxRetries:         cfg.HTTP.MaxRetries,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
		Headers:            headers,
		Logger:             log,
	})

	return Options{
		Job: cfg.Job,
		Load: loader.Options{
			Dir:       cfg.Data.Dir,
			Locations: locs,
			Aliases:   cfg.Data.Aliases,
			Comma:     cfg.Data.CommaRune(),
			HTTP:      client,
			Logger:    log,
		},
		VehicleTypes: cfg.Filters.VehicleTypes,
		Priorities:   cfg.Filters.Priorities,
		TopRoutes:    cfg.Recommend.TopRoutes,
		Logger:       log,
	}, nil
}

// SourceStatus describes how one input was read.
type SourceStatus struct {
	Source    schema.Source `json:"source"`
	Location  string        `json:"location"`
	Available bool          `json:"available"`
	Rows      int           `json:"rows"`
	Skipped   int           `json:"skipped"`
}

// Snapshot is the complete, read-only result of one run.
type Snapshot struct {
	RunID     string        `json:"run_id"`
	Job       string        `json:"job"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	Sources    []SourceStatus `json:"sources"`
	Imputation []impute.Stat  `json:"imputation"`

	// Records is every merged record; Filtered is the selection.
	Records  []schema.MergedRecord `json:"-"`
	Filtered []schema.MergedRecord `json:"-"`

	// The recommendations are ranked over Records, independent of filters.
	HighEmissionRoutes []recommend.RouteEmission   `json:"high_emission_routes"`
	InefficientAssets  []recommend.AssetEfficiency `json:"inefficient_assets"`

	// Summary and the series describe Filtered.
	Summary     insight.Summary           `json:"summary"`
	RouteSeries []recommend.RouteEmission `json:"route_series"`
	Fleet       []insight.FleetPoint      `json:"fleet"`
	Origins     []insight.Share           `json:"origins"`
	Daily       []insight.DayPoint        `json:"daily"`

	Report quality.Report `json:"report"`
}

// LowConfidence reports whether the run's warnings make the metrics
// unreliable.
func (s Snapshot) LowConfidence() bool { return s.Report.LowConfidence() }

// newRunID is replaced in tests.
var newRunID = uuid.NewString

// Run executes the pipeline. It fails only when no source is readable, when
// ctx is canceled, or when a stage invariant is broken; data problems are
// reported in Snapshot.Report.
func Run(ctx context.Context, opt Options) (Snapshot, error) {
	job := opt.Job
	if job == "" {
		job = "greenroute"
	}
	snap := Snapshot{RunID: newRunID(), Job: job, StartedAt: time.Now().UTC()}

	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", snap.RunID), zap.String("job", job))
	opt.Load.Logger = log

	// 1) Load.
	var loaded loader.Result
	err := step(job, "load", func() error {
		var err error
		loaded, err = loader.Load(ctx, opt.Load)
		return err
	})
	if err != nil {
		log.Error("pipeline: load failed", zap.Error(err))
		return Snapshot{}, fmt.Errorf("pipeline: load: %w", err)
	}
	for _, src := range schema.AllSources {
		l := loaded.Sources[src]
		snap.Sources = append(snap.Sources, SourceStatus{
			Source:    src,
			Location:  l.Location,
			Available: l.Available,
			Rows:      l.Table.Len(),
			Skipped:   l.Skipped,
		})
		metrics.RecordRow(job, "read_"+string(src), int64(l.Table.Len()))
		metrics.RecordRow(job, "malformed", int64(l.Skipped))
	}
	snap.Report.Add(loaded.Warnings()...)

	// 2) Merge, impute, derive.
	var recs []schema.MergedRecord
	_ = step(job, "merge", func() error {
		var ws []quality.Warning
		recs, ws = merge.Merge(loaded.Dataset)
		snap.Report.Add(ws...)
		return nil
	})
	metrics.RecordRow(job, "merged", int64(len(recs)))

	_ = step(job, "impute", func() error {
		var ws []quality.Warning
		recs, snap.Imputation, ws = impute.ImputeStats(recs)
		snap.Report.Add(ws...)
		return nil
	})

	err = step(job, "derive", func() error {
		var (
			ws  []quality.Warning
			err error
		)
		recs, ws, err = emissions.Derive(recs)
		snap.Report.Add(ws...)
		return err
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("pipeline: derive: %w", err)
	}
	snap.Records = recs

	// 3) Recommendations over the full set.
	_ = step(job, "recommend", func() error {
		snap.HighEmissionRoutes = recommend.HighEmissionRoutes(recs, opt.TopRoutes)
		snap.InefficientAssets = recommend.InefficientAssets(recs)
		return nil
	})

	// 4) Selection, summary and series.
	_ = step(job, "insight", func() error {
		snap.Filtered = dataset.Filter(recs,
			dataset.ByVehicleType(opt.VehicleTypes...),
			dataset.ByPriority(opt.Priorities...),
		)
		snap.Summary = insight.Summarize(snap.Filtered)
		snap.RouteSeries = insight.TopRoutes(snap.Filtered, insight.DefaultTopRoutes)
		snap.Fleet = insight.FleetProfile(snap.Filtered)
		snap.Origins = insight.OriginShare(snap.Filtered)
		snap.Daily = insight.DailyTrend(snap.Filtered)
		return nil
	})
	metrics.RecordRow(job, "filtered", int64(len(snap.Filtered)))

	for kind, n := range snap.Report.CountByKind() {
		metrics.RecordWarning(job, string(kind), int64(n))
	}
	snap.Elapsed = time.Since(snap.StartedAt)

	log.Info("pipeline: done",
		zap.Int("records", len(snap.Records)),
		zap.Int("filtered", len(snap.Filtered)),
		zap.Int("warnings", snap.Report.Len()),
		zap.Bool("low_confidence", snap.LowConfidence()),
		zap.Duration("elapsed", snap.Elapsed))
	for _, w := range snap.Report.Warnings {
		log.Debug("pipeline: warning",
			zap.String("kind", string(w.Kind)),
			zap.String("source", w.Source),
			zap.String("column", w.Column),
			zap.Int("count", w.Count),
			zap.String("message", w.Message))
	}
	return snap, nil
}

// step times fn and records it under name.
func step(job, name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, name, err, time.Since(start))
	return err
}
