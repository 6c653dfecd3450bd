package prompush

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"greenroute/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// readCounterValue reads the current value of a Counter for assertions in tests.
func readCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Counter.Write() error = %v", err)
	}
	if m.GetCounter() == nil {
		t.Fatalf("metric did not contain Counter value")
	}
	return m.GetCounter().GetValue()
}

// readSummaryCountSum reads sample count and sum from a SummaryVec.
func readSummaryCountSum(t *testing.T, v *prometheus.SummaryVec, labels ...string) (uint64, float64) {
	t.Helper()

	m := &dto.Metric{}
	metric, ok := v.WithLabelValues(labels...).(prometheus.Metric)
	if !ok {
		t.Fatalf("SummaryVec.WithLabelValues(...) does not implement prometheus.Metric")
	}
	if err := metric.Write(m); err != nil {
		t.Fatalf("Summary.Write() error = %v", err)
	}
	if m.GetSummary() == nil {
		t.Fatalf("metric did not contain Summary value")
	}
	s := m.GetSummary()
	return s.GetSampleCount(), s.GetSampleSum()
}

// TestNewBackend validates required arguments and the default job name.
func TestNewBackend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		jobName     string
		gatewayURL  string
		wantErr     bool
		wantJobName string
	}{
		{name: "missing gateway URL returns error", jobName: "x", wantErr: true},
		{name: "empty job name uses default", gatewayURL: "http://pushgateway:9091", wantJobName: "greenroute"},
		{name: "explicit job name is preserved", jobName: "nightly", gatewayURL: "http://pushgateway:9091", wantJobName: "nightly"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			b, err := NewBackend(tt.jobName, tt.gatewayURL)
			if tt.wantErr {
				if err == nil || b != nil {
					t.Fatalf("NewBackend(%q, %q) = %v, %v; want nil, error", tt.jobName, tt.gatewayURL, b, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewBackend(%q, %q) error = %v", tt.jobName, tt.gatewayURL, err)
			}
			if b.jobName != tt.wantJobName {
				t.Fatalf("backend.jobName = %q, want %q", b.jobName, tt.wantJobName)
			}
		})
	}
}

// TestIncCounter verifies routing to the matching collector and that unknown
// names are ignored.
func TestIncCounter(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("greenroute", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.StepTotal, 3, metrics.Labels{"step": "merge", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 5, metrics.Labels{"kind": "merged"})
	b.IncCounter(metrics.WarningsTotal, 2, metrics.Labels{"kind": "schema_mismatch"})
	b.IncCounter(metrics.WarningsTotal, 1, metrics.Labels{"kind": "schema_mismatch"})
	b.IncCounter("unknown_metric", 10, metrics.Labels{"kind": "merged"})

	if got := readCounterValue(t, b.stepCounter.WithLabelValues("merge", "success")); got != 3 {
		t.Fatalf("step counter = %v, want 3", got)
	}
	if got := readCounterValue(t, b.recordCounter.WithLabelValues("merged")); got != 5 {
		t.Fatalf("record counter = %v, want 5", got)
	}
	if got := readCounterValue(t, b.warningCounter.WithLabelValues("schema_mismatch")); got != 3 {
		t.Fatalf("warning counter = %v, want 3", got)
	}
}

// TestIncCounterNilMetrics ensures a zero-value backend does not panic.
func TestIncCounterNilMetrics(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "s", "status": "success"})
	b.IncCounter(metrics.RecordsTotal, 1, metrics.Labels{"kind": "merged"})
	b.IncCounter(metrics.WarningsTotal, 1, metrics.Labels{"kind": "x"})
	b.ObserveHistogram(metrics.StepDurationSeconds, 1, metrics.Labels{})
}

// TestObserveHistogram verifies that only the step duration metric records
// observations.
func TestObserveHistogram(t *testing.T) {
	t.Parallel()

	b, err := NewBackend("greenroute", "http://example.com")
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	lbls := metrics.Labels{"step": "load", "status": "success"}

	b.ObserveHistogram(metrics.StepDurationSeconds, 1.5, lbls)
	b.ObserveHistogram("other_metric", 2, lbls)

	count, sum := readSummaryCountSum(t, b.stepDuration, "load", "success")
	if count != 1 || sum != 1.5 {
		t.Fatalf("summary = (%d, %v), want (1, 1.5)", count, sum)
	}
}

// TestFlush verifies that Flush pushes the registry to the gateway under the
// job grouping key.
func TestFlush(t *testing.T) {
	t.Parallel()

	type pushed struct {
		method string
		path   string
		body   int
	}
	reqCh := make(chan pushed, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		body, _ := io.ReadAll(r.Body)
		reqCh <- pushed{method: r.Method, path: r.URL.Path, body: len(body)}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	b, err := NewBackend("greenroute-test", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	b.IncCounter(metrics.StepTotal, 1, metrics.Labels{"step": "load", "status": "success"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got pushed
	select {
	case got = <-reqCh:
	default:
		t.Fatalf("Flush() did not send any request")
	}
	if got.method != http.MethodPut {
		t.Fatalf("method = %q, want PUT", got.method)
	}
	if !strings.Contains(got.path, "/job/greenroute-test") {
		t.Fatalf("path = %q, want job grouping key", got.path)
	}
	if got.body == 0 {
		t.Fatalf("push body is empty")
	}
}

// TestFlushGatewayError surfaces a non-2xx response from the gateway.
func TestFlushGatewayError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	b, err := NewBackend("", server.URL)
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}
	if err := b.Flush(); err == nil {
		t.Fatalf("Flush() error = nil, want gateway error")
	}
}
