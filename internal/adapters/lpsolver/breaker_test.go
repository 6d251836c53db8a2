package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySolver struct {
	calls int
	err   error
	res   *ports.LPResult
}

func (f *flakySolver) Name() string { return "flaky" }

func (f *flakySolver) Solve(context.Context, *ports.LPProblem) (*ports.LPResult, error) {
	f.calls++
	return f.res, f.err
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	inner := &flakySolver{err: errors.New("exit 1")}
	b := NewBreaker(inner, BreakerSettings{MinRequests: 3, FailureRatio: 0.5, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := b.Solve(context.Background(), &ports.LPProblem{})
		require.Error(t, err)
	}
	assert.Equal(t, 3, inner.calls)

	res, err := b.Solve(context.Background(), &ports.LPProblem{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSolverUnavailable))
	assert.Equal(t, ports.LPUnavailable, res.Status)
	assert.Equal(t, 3, inner.calls, "open breaker must not call the solver")
	assert.Equal(t, "open", b.State())
}

func TestBreakerPassesResults(t *testing.T) {
	inner := &flakySolver{res: &ports.LPResult{Status: ports.LPInfeasible}}
	b := NewBreaker(inner, BreakerSettings{})

	for i := 0; i < 5; i++ {
		res, err := b.Solve(context.Background(), &ports.LPProblem{})
		require.NoError(t, err)
		assert.Equal(t, ports.LPInfeasible, res.Status)
	}
	assert.Equal(t, "closed", b.State())
	assert.Equal(t, "flaky", b.Name())
}
