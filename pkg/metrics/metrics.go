package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	WorkItemTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_work_item_transitions_total",
			Help: "Total number of work item state transitions by action and resulting status",
		},
		[]string{"action", "status"},
	)

	WorkersTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "foreman_workers_total",
			Help: "Number of workers by status",
		},
		[]string{"status"},
	)

	SignalsPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_signals_published_total",
			Help: "Total number of signals sent through the bus",
		},
	)

	SignalsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_signals_dropped_total",
			Help: "Total number of best-effort signal notifications dropped due to a full or absent subscriber",
		},
	)

	CostUSDTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_cost_usd_total",
			Help: "Total recorded cost in USD by model",
		},
		[]string{"model"},
	)

	TokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_tokens_total",
			Help: "Total tokens recorded by model and kind (input, output, cache_read, cache_write)",
		},
		[]string{"model", "kind"},
	)

	StoreLockWaitSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "foreman_store_lock_wait_seconds",
			Help:    "Time spent waiting to acquire the store's advisory lock",
			Buckets: prometheus.DefBuckets,
		},
	)

	StoreLockContentionTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_store_lock_contention_total",
			Help: "Total number of lock acquisitions that had to steal a stale or contended lock",
		},
	)

	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_reconciliation_cycles_total",
			Help: "Total number of health-patrol cycles run",
		},
	)

	HealthAlertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_health_alerts_total",
			Help: "Total number of diagnostic checks reporting warn or error, by check name",
		},
		[]string{"check", "severity"},
	)
)

func init() {
	prometheus.MustRegister(
		WorkItemTransitionsTotal,
		WorkersTotal,
		SignalsPublishedTotal,
		SignalsDroppedTotal,
		CostUSDTotal,
		TokensTotal,
		StoreLockWaitSeconds,
		StoreLockContentionTotal,
		ReconciliationCyclesTotal,
		HealthAlertsTotal,
	)
}

// Handler returns the Prometheus HTTP handler for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing an in-flight operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a Timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}
