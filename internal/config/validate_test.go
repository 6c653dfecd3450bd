package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

/*
TestValidateRun_Default verifies that the default configuration produces no
issues at all.
*/
func TestValidateRun_Default(t *testing.T) {
	t.Parallel()

	if issues := ValidateRun(Default()); len(issues) != 0 {
		t.Fatalf("ValidateRun(Default()) = %+v, want none", issues)
	}
}

/*
TestValidateRun_Findings drives each validator with a single bad field and
checks the reported severity and path.
*/
func TestValidateRun_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(r *Run)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty job", func(r *Run) { r.Job = " " }, SeverityError, "job", "must not be empty"},
		{"long comma", func(r *Run) { r.Data.Comma = ";;" }, SeverityError, "data.comma", "single character"},
		{"unknown source", func(r *Run) { r.Data.Sources = map[string]string{"drivers": "d.csv"} }, SeverityError, "data.sources.drivers", "unknown source"},
		{"empty source location", func(r *Run) { r.Data.Sources = map[string]string{"routes": ""} }, SeverityWarning, "data.sources.routes", "default file"},
		{"url without host", func(r *Run) { r.Data.Sources = map[string]string{"orders": "https:///x.csv"} }, SeverityError, "data.sources.orders", "no host"},
		{"alias to unknown column", func(r *Run) { r.Data.Aliases = map[string]string{"km": "kilometres"} }, SeverityWarning, "data.aliases.km", "not a canonical column"},
		{"negative timeout", func(r *Run) { r.HTTP.Timeout.Duration = -1 }, SeverityError, "http.timeout", "negative"},
		{"negative retries", func(r *Run) { r.HTTP.MaxRetries = -1 }, SeverityWarning, "http.max_retries", "disables retries"},
		{"insecure tls", func(r *Run) { r.HTTP.InsecureSkipVerify = true }, SeverityWarning, "http.insecure_skip_verify", "disabled"},
		{"duplicate filter", func(r *Run) { r.Filters.VehicleTypes = []string{"Truck", "truck"} }, SeverityWarning, "filters.vehicle_types[1]", "duplicate"},
		{"empty filter", func(r *Run) { r.Filters.Priorities = []string{""} }, SeverityWarning, "filters.priorities[0]", "never matches"},
		{"negative top routes", func(r *Run) { r.Recommend.TopRoutes = -2 }, SeverityError, "recommend.top_routes", ">= 0"},
		{"unknown storage", func(r *Run) { r.Export.Storage = Storage{Kind: "mysql", DSN: "x", Table: "t"} }, SeverityError, "export.storage.kind", "unsupported"},
		{"storage without dsn", func(r *Run) { r.Export.Storage = Storage{Kind: "sqlite", Table: "t"} }, SeverityError, "export.storage.dsn", "must not be empty"},
		{"storage without table", func(r *Run) { r.Export.Storage = Storage{Kind: "postgres", DSN: "postgres://x"} }, SeverityError, "export.storage.table", "must not be empty"},
		{"dsn without kind", func(r *Run) { r.Export.Storage = Storage{DSN: "x"} }, SeverityWarning, "export.storage.kind", "disabled"},
		{"bad log level", func(r *Run) { r.Log.Level = "loud" }, SeverityError, "log.level", "loud"},
		{"bad log format", func(r *Run) { r.Log.Format = "xml" }, SeverityError, "log.format", "unknown log format"},
		{"pushgateway without url", func(r *Run) { r.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "requires"},
		{"datadog without addr", func(r *Run) { r.Metrics.Backend = "datadog" }, SeverityError, "metrics.datadog_addr", "requires"},
		{"unknown metrics backend", func(r *Run) { r.Metrics.Backend = "graphite" }, SeverityWarning, "metrics.backend", "unknown"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := Default()
			tt.mutate(&r)
			issues := ValidateRun(r)
			if !hasIssue(t, issues, tt.sev, tt.path, tt.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tt.sev, tt.path, tt.msg, issues)
			}
		})
	}
}

// TestHasErrors distinguishes warning-only results from blocking ones.
func TestHasErrors(t *testing.T) {
	t.Parallel()

	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatal("HasErrors(warnings) = true, want false")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatal("HasErrors(with error) = false, want true")
	}
}

func TestIssueError(t *testing.T) {
	t.Parallel()

	iss := Issue{Severity: SeverityError, Path: "job", Message: "must not be empty"}
	if got, want := iss.Error(), "error at job: must not be empty"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
