// Package metrics records operational metrics for greenroute runs through a
// small, backend-agnostic interface.
//
// A global backend defaults to a no-op implementation, so the helpers are
// always safe to call. Concrete systems live in subpackages (prompush,
// datadog) and are installed with SetBackend by the CLI.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal           = "greenroute_step_total"
	StepDurationSeconds = "greenroute_step_duration_seconds"
	RecordsTotal        = "greenroute_records_total"
	WarningsTotal       = "greenroute_warnings_total"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep counts one execution of a pipeline stage and observes its
// duration, labelled with success or failure.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDurationSeconds, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Kinds used by the pipeline:
//   - "read_<source>" rows parsed per input file
//   - "malformed" rows skipped by the CSV parser
//   - "merged", "filtered", "exported"
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordWarning counts data-quality warnings of one kind.
func RecordWarning(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(WarningsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
