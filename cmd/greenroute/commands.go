package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"greenroute/internal/config"
	"greenroute/internal/logging"
	"greenroute/internal/pipeline"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "load the sources, compute the metrics and print the report",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "data-dir",
				Aliases: []string{"d"},
				Usage:   "directory holding the five CSV files",
				EnvVars: []string{"GREENROUTE_DATA_DIR"},
			},
			&cli.StringSliceFlag{
				Name:    "source",
				Usage:   "override one source location as name=path-or-url (orders, routes, vehicles, performance, costs)",
				EnvVars: []string{"GREENROUTE_SOURCES"},
			},
			&cli.StringSliceFlag{
				Name:    "vehicle-type",
				Usage:   "keep only these vehicle types (repeatable)",
				EnvVars: []string{"GREENROUTE_VEHICLE_TYPES"},
			},
			&cli.StringSliceFlag{
				Name:    "priority",
				Usage:   "keep only these order priorities (repeatable)",
				EnvVars: []string{"GREENROUTE_PRIORITIES"},
			},
			&cli.IntFlag{
				Name:    "top-routes",
				Usage:   "number of high-emission routes to report",
				EnvVars: []string{"GREENROUTE_TOP_ROUTES"},
			},
			&cli.StringFlag{
				Name:    "export",
				Aliases: []string{"o"},
				Usage:   "write the filtered records as CSV to this path (- for stdout)",
				EnvVars: []string{"GREENROUTE_EXPORT"},
			},
			&cli.StringFlag{
				Name:    "export-kind",
				Usage:   "database sink for the filtered records (sqlite, postgres, mssql)",
				EnvVars: []string{"GREENROUTE_EXPORT_KIND"},
			},
			&cli.StringFlag{
				Name:    "export-dsn",
				Usage:   "database sink connection string",
				EnvVars: []string{"GREENROUTE_EXPORT_DSN"},
			},
			&cli.StringFlag{
				Name:    "export-table",
				Usage:   "database sink table, optionally schema-qualified",
				EnvVars: []string{"GREENROUTE_EXPORT_TABLE"},
			},
			&cli.BoolFlag{
				Name:    "create-table",
				Usage:   "create the sink table when it does not exist",
				EnvVars: []string{"GREENROUTE_CREATE_TABLE"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "report format (table, json)",
				EnvVars: []string{"GREENROUTE_FORMAT"},
			},
			&cli.BoolFlag{
				Name:    "strict",
				Usage:   "exit with status 2 when the result is low confidence",
				EnvVars: []string{"GREENROUTE_STRICT"},
			},
		},
		Action: runAction,
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:   "validate",
		Usage:  "check the configuration and exit",
		Action: validateAction,
	}
}

func runAction(c *cli.Context) error {
	format := c.String("format")
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q; expected table or json", format)
	}

	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	issues := config.ValidateRun(cfg)
	printIssues(c.App.ErrWriter, issues)
	if config.HasErrors(issues) {
		return &exitError{code: 1, err: errors.New("configuration is invalid")}
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: c.App.ErrWriter})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	flush := setupMetrics(cfg.Metrics, cfg.Job, log)
	defer flush()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	opt, err := pipeline.OptionsFromConfig(cfg, log)
	if err != nil {
		return err
	}
	snap, err := pipeline.Run(ctx, opt)
	if err != nil {
		return err
	}

	// With the CSV on stdout, the report moves to stderr.
	out := c.App.Writer
	if cfg.Export.CSV == "-" {
		out = c.App.ErrWriter
	}

	res, err := pipeline.WriteExports(ctx, snap, pipeline.ExportOptionsFromConfig(cfg.Export, c.App.Writer, log))
	if err != nil {
		return err
	}

	if err := writeReport(out, format, snap, res); err != nil {
		return err
	}
	if c.Bool("strict") && snap.LowConfidence() {
		return &exitError{code: 2, err: errors.New("low confidence result; see data quality warnings")}
	}
	return nil
}

func validateAction(c *cli.Context) error {
	cfg, err := resolveConfig(c)
	if err != nil {
		return err
	}
	issues := config.ValidateRun(cfg)
	printIssues(c.App.Writer, issues)
	if config.HasErrors(issues) {
		return &exitError{code: 1, err: errors.New("configuration is invalid")}
	}
	fmt.Fprintln(c.App.Writer, "configuration is valid")
	return nil
}

func printIssues(w io.Writer, issues []config.Issue) {
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
}
