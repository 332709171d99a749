// Package metrics defines and registers Foreman's Prometheus metrics:
// work-item transition counts, worker lifecycle gauges, bus publish/drop
// counters, cost and token totals, and store lock contention. Metrics are
// package-level so any component can record without holding a collector
// reference, matching the teacher's metrics package.
package metrics
