package services

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/metrics"
	"errors"
	"fmt"
)

// Strategy is one way of solving a phase. Strategies of a phase are tried in
// priority order until one succeeds.
type Strategy[P, R any] struct {
	Name    string
	Attempt func(ctx context.Context, in P) (R, error)
}

// chainResult is the winning strategy's value plus the failures before it.
type chainResult[R any] struct {
	Value    R
	Strategy string
	Failures []error
}

// runChain runs strategies in order and returns the first success. Every
// failure is logged at debug and counted; errors wrapping ErrSolverUnavailable are
// counted as skipped. If all strategies fail the joined error is returned.
func runChain[P, R any](ctx context.Context, phase string, chain []Strategy[P, R], in P) (chainResult[R], error) {
	var out chainResult[R]
	for _, s := range chain {
		v, err := s.Attempt(ctx, in)
		if err == nil {
			metrics.StrategyAttempts.WithLabelValues(phase, s.Name, "ok").Inc()
			out.Value = v
			out.Strategy = s.Name
			return out, nil
		}

		outcome := "failed"
		if errors.Is(err, domain.ErrSolverUnavailable) {
			outcome = "skipped"
		}
		metrics.StrategyAttempts.WithLabelValues(phase, s.Name, outcome).Inc()
		metrics.Fallbacks.WithLabelValues(phase, s.Name).Inc()
		logFallback(ctx, phase, s.Name, err)

		out.Failures = append(out.Failures, fmt.Errorf("%s: %w", s.Name, err))
	}
	return out, fmt.Errorf("%s: every strategy failed: %w", phase, errors.Join(out.Failures...))
}
