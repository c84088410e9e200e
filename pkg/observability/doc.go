/*
Package observability provides lifecycle hooks for monitoring the Arbor engine.

Metrics exports run, node, exception and signal counters to Prometheus.
Tracing records a span per run and per node execution with OpenTelemetry.
Chain combines several sets of hooks into one.
*/
package observability
