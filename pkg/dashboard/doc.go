// Package dashboard serves read-only JSON summaries of goals, work items,
// workers, and budget status over plain net/http, grounded on the
// teacher's pkg/api health-check server: one ServeMux, one handler per
// resource, Prometheus metrics mounted alongside at /metrics.
package dashboard
