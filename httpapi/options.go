package httpapi

import (
	"context"
	"net/http"
	"time"
)

// MetricsRecorder records served requests and exposes them for scraping.
// It is implemented by *telemetry.Metrics.
type MetricsRecorder interface {
	ObserveRequest(method, route string, code int, duration time.Duration)
	Handler() http.Handler
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Option is a functional option for configuring the handler returned by
// [NewHandler].
type Option func(*options)

type options struct {
	metrics      MetricsRecorder
	healthChecks map[string]HealthCheck
	maxBodyBytes int64
	clock        func() time.Time
}

func newOptions() *options {
	return &options{
		healthChecks: map[string]HealthCheck{},
		maxBodyBytes: 64 << 10,
		clock:        time.Now,
	}
}

// WithMetrics records every request in m and serves m on GET /metrics.
func WithMetrics(m MetricsRecorder) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithHealthCheck adds a named dependency check to GET /healthz. The
// endpoint answers 503 while any check fails.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *options) {
		o.healthChecks[name] = check
	}
}

// WithMaxBodyBytes limits the size of request bodies. Default: 64 KiB.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) {
		o.maxBodyBytes = n
	}
}
