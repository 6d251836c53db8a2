package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/metrics"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings configures the circuit breaker around an external solver.
type BreakerSettings struct {
	// MinRequests before the failure ratio can trip the breaker.
	MinRequests  uint32
	FailureRatio float64
	// OpenTimeout is how long the breaker stays open before a trial call.
	OpenTimeout time.Duration
}

// Breaker stops calling a solver that keeps failing, so an unreachable or
// misbehaving external process costs one fast rejection per call instead of
// a timeout. Infeasible answers count as successes.
type Breaker struct {
	inner ports.LPSolver
	cb    *gobreaker.CircuitBreaker
}

func NewBreaker(inner ports.LPSolver, st BreakerSettings) *Breaker {
	if st.MinRequests == 0 {
		st.MinRequests = 3
	}
	if st.FailureRatio <= 0 {
		st.FailureRatio = 0.5
	}
	if st.OpenTimeout <= 0 {
		st.OpenTimeout = 30 * time.Second
	}

	name := "lp-" + inner.Name()
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     st.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= st.MinRequests && ratio >= st.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("solver breaker state changed", "name", name, "from", from.String(), "to", to.String())
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return &Breaker{inner: inner, cb: cb}
}

func (b *Breaker) Name() string { return b.inner.Name() }

// State exposes the breaker state for health reporting.
func (b *Breaker) State() string { return b.cb.State().String() }

func (b *Breaker) Solve(ctx context.Context, p *ports.LPProblem) (*ports.LPResult, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Solve(ctx, p)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &ports.LPResult{Status: ports.LPUnavailable}, fmt.Errorf("%s: %w: %w", b.Name(), domain.ErrSolverUnavailable, err)
	}
	res, _ := out.(*ports.LPResult)
	return res, err
}
