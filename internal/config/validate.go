package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"

	"greenroute/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "export.storage.kind",
// "data.sources.routes"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether issues contains at least one SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// storageKinds are the database sinks compiled into the binary.
var storageKinds = map[string]struct{}{
	"sqlite":   {},
	"postgres": {},
	"mssql":    {},
}

// ValidateRun performs static validation of r without touching the
// filesystem or network. It does not mutate r.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it labels logs and metrics",
		})
	}
	issues = append(issues, validateData(r.Data)...)
	issues = append(issues, validateHTTP(r.HTTP)...)
	issues = append(issues, validateFilters(r.Filters)...)
	if r.Recommend.TopRoutes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "recommend.top_routes",
			Message:  fmt.Sprintf("top_routes must be >= 0, got %d", r.Recommend.TopRoutes),
		})
	}
	issues = append(issues, validateStorage(r.Export.Storage)...)
	issues = append(issues, validateLog(r.Log)...)
	issues = append(issues, validateMetrics(r.Metrics)...)

	return issues
}

func validateData(d Data) []Issue {
	var issues []Issue

	if n := utf8.RuneCountInString(d.Comma); n > 1 || d.Comma == "\n" || d.Comma == "\r" || d.Comma == `"` {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "data.comma",
			Message:  fmt.Sprintf("comma must be a single character other than quote or newline, got %q", d.Comma),
		})
	}

	for _, name := range sortedKeys(d.Sources) {
		path := "data.sources." + name
		if _, err := schema.ParseSource(name); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("%v; expected one of orders, routes, vehicles, performance, costs", err),
			})
			continue
		}
		loc := strings.TrimSpace(d.Sources[name])
		if loc == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     path,
				Message:  "empty location; the default file name is used",
			})
			continue
		}
		if u, err := url.Parse(loc); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("URL %q has no host", loc),
			})
		}
	}

	for _, raw := range sortedKeys(d.Aliases) {
		canon := strings.ToLower(strings.TrimSpace(d.Aliases[raw]))
		if !schema.IsCanonical(canon) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "data.aliases." + raw,
				Message:  fmt.Sprintf("target %q is not a canonical column; the renamed column will be ignored", canon),
			})
		}
	}

	return issues
}

func validateHTTP(h HTTP) []Issue {
	var issues []Issue
	if h.Timeout.Duration < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "http.timeout",
			Message:  "timeout must not be negative",
		})
	}
	if h.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "http.max_retries",
			Message:  "negative max_retries disables retries",
		})
	}
	if h.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "http.insecure_skip_verify",
			Message:  "TLS certificate verification is disabled",
		})
	}
	return issues
}

func validateFilters(f Filters) []Issue {
	var issues []Issue
	check := func(path string, vals []string) {
		seen := make(map[string]bool, len(vals))
		for i, v := range vals {
			k := strings.ToLower(strings.TrimSpace(v))
			switch {
			case k == "":
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("%s[%d]", path, i),
					Message:  "empty filter value never matches",
				})
			case seen[k]:
				issues = append(issues, Issue{
					Severity: SeverityWarning,
					Path:     fmt.Sprintf("%s[%d]", path, i),
					Message:  fmt.Sprintf("duplicate filter value %q", v),
				})
			}
			seen[k] = true
		}
	}
	check("filters.vehicle_types", f.VehicleTypes)
	check("filters.priorities", f.Priorities)
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		if s.DSN != "" || s.Table != "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "export.storage.kind",
				Message:  "dsn or table set without kind; database export is disabled",
			})
		}
		return issues
	}

	if _, ok := storageKinds[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q; expected sqlite, postgres or mssql", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.storage.dsn",
			Message:  "dsn must not be empty",
		})
	}
	if strings.TrimSpace(s.Table) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "export.storage.table",
			Message:  "table must not be empty",
		})
	}
	return issues
}

func validateLog(l Log) []Issue {
	var issues []Issue
	if l.Level != "" {
		if _, err := zapcore.ParseLevel(l.Level); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "log.level",
				Message:  err.Error(),
			})
		}
	}
	switch l.Format {
	case "", "console", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "log.format",
			Message:  fmt.Sprintf("unknown log format %q; expected console or json", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		}
	case "datadog":
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "datadog backend requires datadog_addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics are disabled", m.Backend),
		})
	}
	return issues
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
