package main

import (
	"go.uber.org/zap"

	"greenroute/internal/config"
	"greenroute/internal/metrics"
	"greenroute/internal/metrics/datadog"
	"greenroute/internal/metrics/prompush"
)

// setupMetrics installs the configured metrics backend and returns the
// function that flushes it at exit. A backend that fails to initialize is
// logged and metrics stay disabled.
func setupMetrics(cfg config.Metrics, job string, log *zap.Logger) func() {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Backend {
	case "", "none":
		log.Debug("metrics: disabled")
		return func() {}
	case "pushgateway":
		b, err = prompush.NewBackend(job, cfg.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  cfg.Namespace,
			GlobalTags: append([]string{"job:" + job}, cfg.Tags...),
		})
	default:
		log.Warn("metrics: unknown backend; metrics disabled", zap.String("backend", cfg.Backend))
		return func() {}
	}
	if err != nil {
		log.Warn("metrics: init failed; metrics disabled", zap.String("backend", cfg.Backend), zap.Error(err))
		return func() {}
	}

	metrics.SetBackend(b)
	log.Info("metrics: enabled", zap.String("backend", cfg.Backend), zap.String("job", job))
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics: flush failed", zap.Error(err))
		}
	}
}
