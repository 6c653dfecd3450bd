package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"greenroute/internal/config"
)

// resolveConfig builds the run configuration: defaults, then the config
// file, then any flag or environment variable that was set.
func resolveConfig(c *cli.Context) (config.Run, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Run{}, err
		}
	}

	setString := func(flag string, dst *string) {
		if c.IsSet(flag) {
			*dst = c.String(flag)
		}
	}
	setString("log-level", &cfg.Log.Level)
	setString("log-format", &cfg.Log.Format)
	setString("metrics-backend", &cfg.Metrics.Backend)
	setString("pushgateway-url", &cfg.Metrics.PushgatewayURL)
	setString("datadog-addr", &cfg.Metrics.DatadogAddr)

	setString("data-dir", &cfg.Data.Dir)
	setString("export", &cfg.Export.CSV)
	setString("export-kind", &cfg.Export.Storage.Kind)
	setString("export-dsn", &cfg.Export.Storage.DSN)
	setString("export-table", &cfg.Export.Storage.Table)
	if c.IsSet("create-table") {
		cfg.Export.Storage.AutoCreateTable = c.Bool("create-table")
	}
	if c.IsSet("vehicle-type") {
		cfg.Filters.VehicleTypes = c.StringSlice("vehicle-type")
	}
	if c.IsSet("priority") {
		cfg.Filters.Priorities = c.StringSlice("priority")
	}
	if c.IsSet("top-routes") {
		cfg.Recommend.TopRoutes = c.Int("top-routes")
	}

	if c.IsSet("source") {
		sources := make(map[string]string, len(cfg.Data.Sources))
		for k, v := range cfg.Data.Sources {
			sources[k] = v
		}
		for _, kv := range c.StringSlice("source") {
			name, loc, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(name) == "" {
				return config.Run{}, fmt.Errorf("--source %q: expected name=location", kv)
			}
			sources[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(loc)
		}
		cfg.Data.Sources = sources
	}
	return cfg, nil
}
