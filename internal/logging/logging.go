// Package logging builds the zap logger shared by the CLI and the pipeline.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level and encoding of the logger.
type Options struct {
	// Level is a zap level name (debug, info, warn, error); empty means info.
	Level string
	// Format is "console" (default) or "json".
	Format string
	// Output overrides stderr.
	Output io.Writer
}

// New returns a logger for opt. The caller should Sync it before exit.
func New(opt Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opt.Level != "" {
		l, err := zapcore.ParseLevel(opt.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = l
	}

	var cfg zap.Config
	switch opt.Format {
	case "json":
		cfg = zap.NewProductionConfig()
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.Development = false
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opt.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opt.Output == nil {
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("logging: build: %w", err)
		}
		return logger, nil
	}

	var enc zapcore.Encoder
	if cfg.Encoding == "json" {
		enc = zapcore.NewJSONEncoder(cfg.EncoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(cfg.EncoderConfig)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(opt.Output), cfg.Level)
	return zap.New(core), nil
}
