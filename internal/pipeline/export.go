package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"greenroute/internal/config"
	"greenroute/internal/export"
	"greenroute/internal/metrics"
)

// ExportOptions selects the outputs of WriteExports. Zero values disable
// each output.
type ExportOptions struct {
	// CSVPath is the CSV destination; "-" writes to Stdout.
	CSVPath string
	Stdout  io.Writer

	Storage export.StorageOptions

	Logger *zap.Logger
}

// ExportOptionsFromConfig maps the export section of a run configuration.
func ExportOptionsFromConfig(cfg config.Export, stdout io.Writer, log *zap.Logger) ExportOptions {
	return ExportOptions{
		CSVPath: cfg.CSV,
		Stdout:  stdout,
		Storage: export.StorageOptions{
			Kind:        cfg.Storage.Kind,
			DSN:         cfg.Storage.DSN,
			Table:       cfg.Storage.Table,
			CreateTable: cfg.Storage.AutoCreateTable,
		},
		Logger: log,
	}
}

// ExportResult reports what WriteExports produced.
type ExportResult struct {
	// CSV is set when a CSV was written.
	CSV     *export.Digest `json:"csv,omitempty"`
	CSVPath string         `json:"csv_path,omitempty"`
	// StoredRows is the number of rows written to the database sink.
	StoredRows int64 `json:"stored_rows,omitempty"`
}

// WriteExports writes snap.Filtered to the configured outputs. The same
// snapshot always produces the same CSV bytes.
func WriteExports(ctx context.Context, snap Snapshot, opt ExportOptions) (ExportResult, error) {
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", snap.RunID))
	var res ExportResult

	if opt.CSVPath != "" {
		var d export.Digest
		err := step(snap.Job, "export_csv", func() error {
			var err error
			d, err = writeCSVFile(opt.CSVPath, opt.Stdout, snap)
			return err
		})
		if err != nil {
			return res, err
		}
		res.CSV, res.CSVPath = &d, opt.CSVPath
		metrics.RecordRow(snap.Job, "exported", int64(d.Rows))
		log.Info("export: csv written",
			zap.String("path", opt.CSVPath),
			zap.Int("rows", d.Rows),
			zap.Int64("bytes", d.Bytes),
			zap.String("xxh3", d.String()))
	}

	if opt.Storage.Kind != "" {
		err := step(snap.Job, "export_storage", func() error {
			n, err := export.ToStorage(ctx, opt.Storage, snap.Filtered)
			res.StoredRows = n
			return err
		})
		if err != nil {
			return res, fmt.Errorf("pipeline: %w", err)
		}
		metrics.RecordRow(snap.Job, "stored", res.StoredRows)
		log.Info("export: rows stored",
			zap.String("kind", opt.Storage.Kind),
			zap.String("table", opt.Storage.Table),
			zap.Int64("rows", res.StoredRows))
	}
	return res, nil
}

func writeCSVFile(path string, stdout io.Writer, snap Snapshot) (export.Digest, error) {
	if path == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return export.WriteCSV(stdout, snap.Filtered)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return export.Digest{}, fmt.Errorf("pipeline: export dir: %w", err)
		}
	}
	// Written beside the target, then renamed into place.
	tmp, err := os.CreateTemp(filepath.Dir(path), ".greenroute-*.csv")
	if err != nil {
		return export.Digest{}, fmt.Errorf("pipeline: export: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return export.Digest{}, fmt.Errorf("pipeline: export: %w", err)
	}

	d, err := export.WriteCSV(tmp, snap.Filtered)
	if err != nil {
		tmp.Close()
		return export.Digest{}, fmt.Errorf("pipeline: export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return export.Digest{}, fmt.Errorf("pipeline: export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return export.Digest{}, fmt.Errorf("pipeline: export: %w", err)
	}
	return d, nil
}
