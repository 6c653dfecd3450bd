// Package httpds fetches input files over HTTP(S) with retry and backoff.
// Transient failures (transport errors, 429 and 5xx) are retried with an
// exponential backoff; any other non-2xx status is final.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ErrStatus is wrapped by errors reporting a non-2xx final response.
var ErrStatus = errors.New("httpds: unexpected status")

// Config configures the HTTP client. Zero values get defaults:
// Timeout 30s, MaxRetries 3, InitialBackoff 200ms, MaxBackoff 5s.
type Config struct {
	Timeout        time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// InsecureSkipVerify disables TLS certificate checks.
	InsecureSkipVerify bool

	// Headers are sent with every request.
	Headers http.Header

	// Transport overrides the default *http.Transport.
	Transport http.RoundTripper

	Logger *zap.Logger
}

// Client wraps an http.Client with retry and backoff behavior.
type Client struct {
	http           *http.Client
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	headers        http.Header
	log            *zap.Logger

	// wait blocks for d or until ctx is done. Replaced in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewClient constructs a Client from cfg, applying defaults for zero values.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicitly configurable
			},
		}
	}
	return &Client{
		http:           &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:     cfg.MaxRetries,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		headers:        cfg.Headers.Clone(),
		log:            cfg.Logger,
		wait:           waitContext,
	}
}

// Get fetches url and returns the body of the first 2xx response. The caller
// must close it. Non-retryable statuses return an error wrapping ErrStatus.
func (c *Client) Get(ctx context.Context, url string) (io.ReadCloser, error) {
	if url == "" {
		return nil, errors.New("httpds: url must not be empty")
	}
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		for k, vs := range c.headers {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := c.http.Do(req)
		switch {
		case err != nil:
			lastErr = err
		case resp.StatusCode >= 200 && resp.StatusCode <= 299:
			return resp.Body, nil
		case retryable(resp.StatusCode):
			resp.Body.Close()
			lastErr = fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, url)
		default:
			resp.Body.Close()
			return nil, fmt.Errorf("%w %d from %s", ErrStatus, resp.StatusCode, url)
		}

		if attempt == c.maxRetries {
			break
		}
		d := backoff(c.initialBackoff, attempt, c.maxBackoff)
		c.log.Warn("httpds: retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", d),
			zap.Error(lastErr))
		if err := c.wait(ctx, d); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff returns initial * 2^attempt clamped to max.
func backoff(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial
	for i := 0; i < attempt; i++ {
		if d >= max {
			return max
		}
		d *= 2
	}
	if d > max {
		return max
	}
	return d
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
