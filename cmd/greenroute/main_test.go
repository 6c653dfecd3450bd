package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"greenroute/internal/config"
)

var fixture = map[string]string{
	"orders.csv": "Order_ID,Order_Date,Origin,Destination,Order_Value_USD,Priority,Vehicle_ID,Route_ID\n" +
		"O1,2024-01-05,Mumbai,Delhi,500,Express,V1,R1\n" +
		"O2,2024-01-06,Pune,Chennai,250,Standard,V2,R2\n",
	"routes_distance.csv":      "route_id,distance_km\nR1,100\nR2,40\n",
	"vehicle_fleet.csv":        "vehicle_id,vehicle_type,age_years,co2_emissions_kg_per_km\nV1,Truck,4,0.5\nV2,Van,2,0.2\n",
	"delivery_performance.csv": "order_id,carrier,promised_delivery_days,actual_delivery_days\nO1,A,2,2\nO2,B,2,3\n",
	"cost_breakdown.csv":       "order_id,fuel_cost,labor_cost\nO1,10,20\nO2,5,5\n",
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := newApp(&out, &errOut).Run(append([]string{"greenroute", "--log-level", "error"}, args...))
	return out.String(), errOut.String(), err
}

// TestRunTableReport runs the full command and checks the text report and
// the CSV export.
func TestRunTableReport(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, fixture)
	csvPath := filepath.Join(t.TempDir(), "out", "filtered.csv")

	out, _, err := runApp(t, "run", "--data-dir", dir, "--export", csvPath)
	require.NoError(t, err)

	for _, want := range []string{
		"Priority 1: high-emission routes",
		"1. R1",
		"Priority 2: inefficient assets",
		"1. Truck",
		"Summary (2 of 2 records)",
		"Data quality",
		csvPath,
	} {
		require.Contains(t, out, want)
	}
	require.NotContains(t, out, "LOW CONFIDENCE")

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(string(b), "\n"))
}

// TestRunJSONReport decodes the machine-readable report.
func TestRunJSONReport(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, fixture)
	out, _, err := runApp(t, "run", "--data-dir", dir, "--format", "json", "--vehicle-type", "Van")
	require.NoError(t, err)

	var got struct {
		RunID              string `json:"run_id"`
		LowConfidence      bool   `json:"low_confidence"`
		HighEmissionRoutes []struct {
			Key string `json:"key"`
		} `json:"high_emission_routes"`
		Summary struct {
			Records int `json:"records"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got.RunID)
	require.False(t, got.LowConfidence)
	require.Len(t, got.HighEmissionRoutes, 2, "rankings ignore the filter")
	require.Equal(t, "R1", got.HighEmissionRoutes[0].Key)
	require.Equal(t, 1, got.Summary.Records)
}

// TestRunExportToStdout moves the report to stderr so stdout holds only CSV.
func TestRunExportToStdout(t *testing.T) {
	t.Parallel()

	dir := writeFiles(t, fixture)
	out, errOut, err := runApp(t, "run", "--data-dir", dir, "--export", "-", "--priority", "express")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "order_id,"))
	require.True(t, strings.HasPrefix(lines[1], "O1,"))
	require.Contains(t, errOut, "Priority 1: high-emission routes")
}

// TestRunStrictLowConfidence exits with status 2 when sources are missing.
func TestRunStrictLowConfidence(t *testing.T) {
	t.Parallel()

	files := map[string]string{
		"orders.csv":          fixture["orders.csv"],
		"routes_distance.csv": fixture["routes_distance.csv"],
		"vehicle_fleet.csv":   fixture["vehicle_fleet.csv"],
	}
	dir := writeFiles(t, files)

	out, _, err := runApp(t, "run", "--data-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "LOW CONFIDENCE")
	require.Contains(t, out, "source_unavailable [performance]")

	_, _, err = runApp(t, "run", "--data-dir", dir, "--strict")
	require.Error(t, err)
	require.Equal(t, 2, exitCode(err))
}

// TestRunNoSources reports the empty dataset as a plain failure.
func TestRunNoSources(t *testing.T) {
	t.Parallel()

	_, _, err := runApp(t, "run", "--data-dir", t.TempDir())
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := runApp(t, "run", "--format", "xml")
	require.ErrorContains(t, err, "unknown format")
}

// TestValidate checks both outcomes of the validate command.
func TestValidate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(good, []byte("job: nightly\ndata:\n  dir: ./data\n"), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(`{"export":{"storage":{"kind":"sqlite","table":"t"}}}`), 0o644))

	out, _, err := runApp(t, "--config", good, "validate")
	require.NoError(t, err)
	require.Contains(t, out, "configuration is valid")

	out, _, err = runApp(t, "--config", bad, "validate")
	require.Error(t, err)
	require.Equal(t, 1, exitCode(err))
	require.Contains(t, out, "error: export.storage.dsn")
}

// capture runs resolveConfig under the run command's flags.
func capture(t *testing.T, args ...string) config.Run {
	t.Helper()
	var cfg config.Run
	app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "dump",
		Flags: runCommand().Flags,
		Action: func(c *cli.Context) error {
			var err error
			cfg, err = resolveConfig(c)
			return err
		},
	})
	require.NoError(t, app.Run(append([]string{"greenroute"}, args...)))
	return cfg
}

// TestResolveConfigPrecedence applies flags over the file over defaults.
func TestResolveConfigPrecedence(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
job: weekly
data:
  dir: from-file
  sources:
    orders: orders-2024.csv
recommend:
  top_routes: 7
log:
  level: warn
`), 0o644))

	cfg := capture(t, "--config", path, "--log-level", "debug", "dump",
		"--data-dir", "from-flag",
		"--source", "routes=https://example.com/routes.csv",
		"--vehicle-type", "Truck", "--vehicle-type", "Van",
		"--export-kind", "sqlite", "--export-dsn", "x.db", "--export-table", "t", "--create-table")

	require.Equal(t, "weekly", cfg.Job)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "from-flag", cfg.Data.Dir)
	require.Equal(t, map[string]string{
		"orders": "orders-2024.csv",
		"routes": "https://example.com/routes.csv",
	}, cfg.Data.Sources)
	require.Equal(t, []string{"Truck", "Van"}, cfg.Filters.VehicleTypes)
	require.Equal(t, 7, cfg.Recommend.TopRoutes)
	require.Equal(t, config.Storage{Kind: "sqlite", DSN: "x.db", Table: "t", AutoCreateTable: true}, cfg.Export.Storage)
}

// TestResolveConfigEnv reads overrides from the environment; t.Setenv rules
// out t.Parallel.
func TestResolveConfigEnv(t *testing.T) {
	t.Setenv("GREENROUTE_TOP_ROUTES", "2")
	t.Setenv("GREENROUTE_METRICS_BACKEND", "datadog")

	cfg := capture(t, "dump")
	require.Equal(t, 2, cfg.Recommend.TopRoutes)
	require.Equal(t, "datadog", cfg.Metrics.Backend)
}

func TestResolveConfigBadSource(t *testing.T) {
	t.Parallel()

	app := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	app.Commands = append(app.Commands, &cli.Command{
		Name:   "dump",
		Flags:  runCommand().Flags,
		Action: func(c *cli.Context) error { _, err := resolveConfig(c); return err },
	})
	require.ErrorContains(t, app.Run([]string{"greenroute", "dump", "--source", "orders"}), "name=location")
}
