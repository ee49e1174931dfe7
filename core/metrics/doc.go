// Package metrics defines the observability sink interfaces for the
// decision pipeline and the learning loop. Concrete sinks (Prometheus,
// InfluxDB) live under infra/metrics and register themselves with the
// factory registry.
package metrics
