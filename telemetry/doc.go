// Package telemetry sets up tracing and metrics for rsvpd.
//
// Tracing is opt-in: [SetupTracing] installs an OTLP/HTTP exporter only when
// an endpoint is configured. Metrics are always collected in a private
// Prometheus registry and served by [Metrics.Handler].
package telemetry
