// Command greenroute joins the logistics sources, derives per-shipment CO2
// and carbon-cost-per-value, and reports the routes and vehicle types to
// act on first.
//
// Usage:
//
//	greenroute run --data-dir ./data [--vehicle-type Truck]... [--priority Express]... [--export out.csv]
//	greenroute validate --config greenroute.yaml
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	// register all backends with the storage factory.
	_ "greenroute/internal/storage/all"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "greenroute: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "greenroute",
		Usage:     "logistics sustainability report: CO2 per shipment, carbon cost per value, and where to act",
		Version:   fmt.Sprintf("%s (commit: %s)", version, commit),
		Writer:    stdout,
		ErrWriter: stderr,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "run configuration file (.yaml, .yml or .json)",
				EnvVars: []string{"GREENROUTE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				EnvVars: []string{"GREENROUTE_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log encoding (console, json)",
				EnvVars: []string{"GREENROUTE_LOG_FORMAT"},
			},
			&cli.StringFlag{
				Name:    "metrics-backend",
				Usage:   "metrics backend (none, pushgateway, datadog)",
				EnvVars: []string{"GREENROUTE_METRICS_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "pushgateway-url",
				Usage:   "Pushgateway base URL",
				EnvVars: []string{"GREENROUTE_PUSHGATEWAY_URL", "PUSHGATEWAY_URL"},
			},
			&cli.StringFlag{
				Name:    "datadog-addr",
				Usage:   "DogStatsD address, e.g. 127.0.0.1:8125",
				EnvVars: []string{"GREENROUTE_DATADOG_ADDR", "DD_DOGSTATSD_URL"},
			},
		},

		Commands: []*cli.Command{
			runCommand(),
			validateCommand(),
		},
	}
}

// exitError carries a specific exit status. It must not implement
// cli.ExitCoder: the app would then call os.Exit from inside Run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
