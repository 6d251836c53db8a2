package services

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/metrics"
	"log/slog"
	"time"
)

// EventKind names a point in an engine run.
type EventKind string

const (
	EventSeeded           EventKind = "seeded"
	EventMasterSolved     EventKind = "master_solved"
	EventMasterDegraded   EventKind = "master_degraded"
	EventPricingDegraded  EventKind = "pricing_degraded"
	EventColumnAdded      EventKind = "column_added"
	EventStopped          EventKind = "stopped"
	EventFinalizeDegraded EventKind = "finalize_degraded"
	EventFinalized        EventKind = "finalized"
)

// Event is one diagnostic record. Fields not relevant to Kind are zero.
type Event struct {
	Kind      EventKind
	RunID     string
	At        time.Time
	State     State
	Iteration int
	PoolSize  int
	Objective float64
	Duals     DualPrices
	Column    *domain.Route
	// ReducedCost of Column when Kind is EventColumnAdded.
	ReducedCost float64
	Strategy    string
	Reason      StopReason
	// Err carries the non-fatal condition behind degraded and stopped events.
	Err error
}

// Observer receives the engine's diagnostic stream. OnEvent is called
// synchronously from the engine goroutine and must not block for long.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }

// MultiObserver fans an event out to every observer in order.
type MultiObserver []Observer

func (m MultiObserver) OnEvent(e Event) {
	for _, o := range m {
		if o != nil {
			o.OnEvent(e)
		}
	}
}

type nopObserver struct{}

func (nopObserver) OnEvent(Event) {}

// NewLogObserver logs every event: degradations at warn, the rest at debug,
// the final outcome at info.
func NewLogObserver(l *slog.Logger) Observer {
	if l == nil {
		l = slog.Default()
	}
	return ObserverFunc(func(e Event) {
		attrs := []any{"run_id", e.RunID, "event", string(e.Kind), "iteration", e.Iteration, "pool", e.PoolSize}
		switch e.Kind {
		case EventMasterDegraded, EventPricingDegraded, EventFinalizeDegraded:
			l.Warn("solver degraded", append(attrs, "strategy", e.Strategy, "err", e.Err)...)
		case EventMasterSolved:
			l.Debug("master solved", append(attrs, "objective", e.Objective, "strategy", e.Strategy)...)
		case EventColumnAdded:
			l.Debug("column added", append(attrs, "route", e.Column.String(), "reduced_cost", e.ReducedCost, "strategy", e.Strategy)...)
		case EventStopped:
			l.Info("column generation stopped", append(attrs, "state", string(e.State), "reason", string(e.Reason))...)
		case EventFinalized:
			l.Info("run finalized", append(attrs, "objective", e.Objective, "strategy", e.Strategy)...)
		default:
			l.Debug(string(e.Kind), attrs...)
		}
	})
}

// NewMetricsObserver feeds the Prometheus collectors in internal/metrics.
func NewMetricsObserver() Observer {
	var stop Event
	return ObserverFunc(func(e Event) {
		switch e.Kind {
		case EventMasterSolved:
			metrics.Iterations.Inc()
		case EventColumnAdded:
			metrics.ColumnsAdded.Inc()
		case EventStopped:
			stop = e
		case EventFinalized:
			metrics.Runs.WithLabelValues(string(stop.State), string(stop.Reason)).Inc()
		}
	})
}

// NewChannelObserver forwards events to ch without blocking; events are
// dropped while ch is full.
func NewChannelObserver(ch chan<- Event) Observer {
	return ObserverFunc(func(e Event) {
		select {
		case ch <- e:
		default:
		}
	})
}

// logFallback records a single strategy failure at debug level. The
// degraded phase is reported once at warn by the log observer.
func logFallback(ctx context.Context, phase, strategy string, err error) {
	slog.DebugContext(ctx, "strategy failed, falling back", "phase", phase, "strategy", strategy, "err", err)
}
