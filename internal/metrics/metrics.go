// Package metrics holds the service's Prometheus collectors on a dedicated
// registry, exposed by the API under /metrics.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for the service.
	Registry = prometheus.NewRegistry()

	// StrategyAttempts counts solver strategy attempts by phase (master,
	// pricing, finalize), strategy name and outcome (ok, failed, skipped).
	StrategyAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cvrp_strategy_attempts_total", Help: "Solver strategy attempts by phase, strategy and outcome."},
		[]string{"phase", "strategy", "outcome"},
	)
	// Fallbacks counts every time a phase moved past a failed strategy.
	Fallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cvrp_strategy_fallbacks_total", Help: "Fallbacks from a failed strategy to the next one."},
		[]string{"phase", "from"},
	)
	// Iterations counts column generation iterations.
	Iterations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cvrp_cg_iterations_total", Help: "Column generation iterations."},
	)
	// ColumnsAdded counts routes added to column pools by pricing.
	ColumnsAdded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "cvrp_cg_columns_added_total", Help: "Columns added by pricing."},
	)
	// Runs counts finished engine runs by final state and stop reason.
	Runs = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cvrp_runs_total", Help: "Finished solver runs."},
		[]string{"state", "reason"},
	)
	// SolveDuration records solve durations in seconds by algorithm.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "cvrp_solve_duration_seconds", Help: "Solve duration in seconds.", Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300}},
		[]string{"algorithm"},
	)
	// BreakerState mirrors circuit breaker states (0 closed, 1 half-open, 2 open).
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "cvrp_solver_breaker_state", Help: "External solver circuit breaker state."},
		[]string{"name"},
	)
	// CacheLookups counts result cache lookups by outcome (hit, miss, error).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cvrp_result_cache_lookups_total", Help: "Result cache lookups."},
		[]string{"outcome"},
	)

	// HTTPRequests counts requests by method, path, and status.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
		[]string{"method", "path", "status"},
	)
	// HTTPDuration records request durations in seconds.
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"method", "path", "status"},
	)
)

var regOnce sync.Once

// RegisterDefault registers all collectors, plus Go/process collectors, on
// Registry. Safe to call more than once.
func RegisterDefault() {
	regOnce.Do(func() {
		Registry.MustRegister(StrategyAttempts, Fallbacks, Iterations, ColumnsAdded, Runs, SolveDuration, BreakerState, CacheLookups)
		Registry.MustRegister(HTTPRequests, HTTPDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}
