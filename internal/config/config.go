// Package config defines the run configuration for greenroute: where the
// five input files live, which records to keep, how many routes to rank,
// where to export, and how to log and report metrics.
//
// Files are YAML by default; a ".json" extension selects JSON. Fields absent
// from the file keep the values from Default, and CLI flags are applied on
// top by the caller.
//
// Example (YAML):
//
//	job: weekly-sustainability
//	data:
//	  dir: ./data
//	  sources:
//	    routes: https://example.com/routes_distance.csv
//	  aliases:
//	    km_travelled: distance_km
//	filters:
//	  vehicle_types: [Truck, Van]
//	export:
//	  csv: out/filtered.csv
//	  storage: { kind: sqlite, dsn: out/greenroute.db, table: shipments, auto_create_table: true }
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Run is the top-level configuration of one invocation.
type Run struct {
	// Job names the run in logs and metrics.
	Job string `yaml:"job" json:"job"`

	Data      Data      `yaml:"data" json:"data"`
	HTTP      HTTP      `yaml:"http" json:"http"`
	Filters   Filters   `yaml:"filters" json:"filters"`
	Recommend Recommend `yaml:"recommend" json:"recommend"`
	Export    Export    `yaml:"export" json:"export"`
	Log       Log       `yaml:"log" json:"log"`
	Metrics   Metrics   `yaml:"metrics" json:"metrics"`
}

// Data locates the input files.
type Data struct {
	// Dir is joined to relative source locations.
	Dir string `yaml:"dir" json:"dir"`

	// Sources overrides the default file of a source (orders, routes,
	// vehicles, performance, costs) with a path or HTTP(S) URL.
	Sources map[string]string `yaml:"sources" json:"sources"`

	// Comma is the single-character CSV delimiter.
	Comma string `yaml:"comma" json:"comma"`

	// Aliases maps extra raw header spellings to canonical column names.
	Aliases map[string]string `yaml:"aliases" json:"aliases"`
}

// HTTP configures fetching of remote sources.
type HTTP struct {
	Timeout            Duration          `yaml:"timeout" json:"timeout"`
	MaxRetries         int               `yaml:"max_retries" json:"max_retries"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
	Headers            map[string]string `yaml:"headers" json:"headers"`
}

// Filters selects the records shown in the summary and exported.
// Empty lists select everything.
type Filters struct {
	VehicleTypes []string `yaml:"vehicle_types" json:"vehicle_types"`
	Priorities   []string `yaml:"priorities" json:"priorities"`
}

// Recommend tunes the recommendation engine.
type Recommend struct {
	// TopRoutes is the number of high-emission routes reported; 0 means 5.
	TopRoutes int `yaml:"top_routes" json:"top_routes"`
}

// Export configures the optional outputs of the filtered record set.
type Export struct {
	// CSV is the output path; "-" writes to stdout, empty disables it.
	CSV     string  `yaml:"csv" json:"csv"`
	Storage Storage `yaml:"storage" json:"storage"`
}

// Storage selects a database sink. An empty Kind disables it.
type Storage struct {
	Kind            string `yaml:"kind" json:"kind"`
	DSN             string `yaml:"dsn" json:"dsn"`
	Table           string `yaml:"table" json:"table"`
	AutoCreateTable bool   `yaml:"auto_create_table" json:"auto_create_table"`
}

// Log configures the zap logger.
type Log struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Metrics selects the metrics backend.
type Metrics struct {
	// Backend is one of none, pushgateway, datadog.
	Backend        string   `yaml:"backend" json:"backend"`
	PushgatewayURL string   `yaml:"pushgateway_url" json:"pushgateway_url"`
	DatadogAddr    string   `yaml:"datadog_addr" json:"datadog_addr"`
	Namespace      string   `yaml:"namespace" json:"namespace"`
	Tags           []string `yaml:"tags" json:"tags"`
}

// Default returns the configuration used when no file is given.
func Default() Run {
	return Run{
		Job:       "greenroute",
		Data:      Data{Dir: ".", Comma: ","},
		HTTP:      HTTP{Timeout: Duration{30 * time.Second}, MaxRetries: 3},
		Recommend: Recommend{TopRoutes: 5},
		Log:       Log{Level: "info", Format: "console"},
		Metrics:   Metrics{Backend: "none"},
	}
}

// Load reads the file at path over Default. Unknown fields are rejected.
func Load(path string) (Run, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	r, err := Parse(b, strings.EqualFold(filepath.Ext(path), ".json"))
	if err != nil {
		return Run{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return r, nil
}

// Parse decodes b over Default, as JSON when asJSON is set and YAML
// otherwise.
func Parse(b []byte, asJSON bool) (Run, error) {
	r := Default()
	if asJSON {
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&r); err != nil {
			return Run{}, fmt.Errorf("decode json: %w", err)
		}
		return r, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	// An empty document leaves the defaults in place.
	if err := dec.Decode(&r); err != nil && !errors.Is(err, io.EOF) {
		return Run{}, fmt.Errorf("decode yaml: %w", err)
	}
	return r, nil
}

// CommaRune returns the delimiter as a rune; ',' when unset.
func (d Data) CommaRune() rune {
	for _, r := range d.Comma {
		return r
	}
	return ','
}

// Duration is a time.Duration written as "30s" in YAML and JSON files.
// Plain JSON numbers are read as seconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML accepts a Go duration string.
func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	d.Duration = v
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalJSON accepts a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		d.Duration = v
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or number: %s", b)
	}
	d.Duration = time.Duration(secs * float64(time.Second))
	return nil
}

// MarshalJSON writes the duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
