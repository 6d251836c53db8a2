package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(sense ports.Sense, rhs float64, vars []int, coefs []float64) ports.Constraint {
	return ports.Constraint{Vars: vars, Coefs: coefs, Sense: sense, RHS: rhs}
}

func TestSimplexCoveringLP(t *testing.T) {
	p := &ports.LPProblem{
		Name:      "cover",
		Objective: []float64{1, 1},
		Rows: []ports.Constraint{
			row(ports.GE, 2, []int{0, 1}, []float64{1, 2}),
			row(ports.GE, 3, []int{0, 1}, []float64{3, 1}),
		},
		WantDuals: true,
	}

	res, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)

	assert.InDelta(t, 1.4, res.Objective, 1e-9)
	assert.InDelta(t, 0.8, res.Values[0], 1e-9)
	assert.InDelta(t, 0.6, res.Values[1], 1e-9)
	require.Len(t, res.Duals, 2)
	assert.InDelta(t, 0.4, res.Duals[0], 1e-9)
	assert.InDelta(t, 0.2, res.Duals[1], 1e-9)
}

func TestSimplexSetPartitionDualsPriceColumns(t *testing.T) {
	// Two customers; columns {1}, {2}, {1,2}.
	costs := []float64{2, 2, 3}
	p := &ports.LPProblem{
		Name:      "master",
		Objective: costs,
		Rows: []ports.Constraint{
			row(ports.EQ, 1, []int{0, 2}, []float64{1, 1}),
			row(ports.EQ, 1, []int{1, 2}, []float64{1, 1}),
		},
		WantDuals: true,
	}

	res, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, 3, res.Objective, 1e-9)
	assert.InDelta(t, 1, res.Values[2], 1e-9)

	y := res.Duals
	assert.InDelta(t, res.Objective, y[0]+y[1], 1e-9, "strong duality")
	assert.GreaterOrEqual(t, costs[0]-y[0], -1e-9)
	assert.GreaterOrEqual(t, costs[1]-y[1], -1e-9)
	assert.GreaterOrEqual(t, costs[2]-y[0]-y[1], -1e-9)
}

func TestSimplexDuplicateEqualityRows(t *testing.T) {
	p := &ports.LPProblem{
		Objective: []float64{1, 2},
		Rows: []ports.Constraint{
			row(ports.EQ, 1, []int{0, 1}, []float64{1, 1}),
			row(ports.EQ, 1, []int{1, 0}, []float64{1, 1}),
		},
		WantDuals: true,
	}

	res, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, 1, res.Objective, 1e-9)
	assert.InDelta(t, 1, res.Duals[0], 1e-9)
	assert.Zero(t, res.Duals[1])
}

func TestSimplexInfeasible(t *testing.T) {
	p := &ports.LPProblem{
		Objective: []float64{1, 1},
		Rows: []ports.Constraint{
			row(ports.EQ, -1, []int{0, 1}, []float64{1, 1}),
		},
	}
	res, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ports.LPInfeasible, res.Status)
}

func TestSimplexUpperBounds(t *testing.T) {
	p := &ports.LPProblem{
		Objective: []float64{-1, -1},
		Upper:     []float64{0.5, -1},
		Rows: []ports.Constraint{
			row(ports.LE, 2, []int{0, 1}, []float64{1, 1}),
		},
	}
	res, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, -2, res.Objective, 1e-9)
	assert.LessOrEqual(t, res.Values[0], 0.5+1e-9)
}

func TestSimplexCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewSimplex().Solve(ctx, &ports.LPProblem{Objective: []float64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSolverTimeout))
	assert.Equal(t, ports.LPTimeout, res.Status)
}

func TestBranchBoundKnapsack(t *testing.T) {
	p := &ports.LPProblem{
		Name:      "knapsack",
		Objective: []float64{-5, -4, -3},
		Kinds:     []ports.VarKind{ports.Binary, ports.Binary, ports.Binary},
		Rows: []ports.Constraint{
			row(ports.LE, 5, []int{0, 1, 2}, []float64{2, 3, 1}),
		},
	}

	res, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, -9, res.Objective, 1e-9)
	assert.Equal(t, []float64{1, 1, 0}, res.Values)
}

func TestBranchBoundSetPartition(t *testing.T) {
	// Customers 1..3; the LP optimum mixes three pair columns at 0.5 each
	// (cost 4.5), the integer optimum is {1,2} + {3}.
	p := &ports.LPProblem{
		Objective: []float64{3, 3, 3, 2, 2, 2},
		Kinds:     []ports.VarKind{ports.Binary, ports.Binary, ports.Binary, ports.Binary, ports.Binary, ports.Binary},
		Rows: []ports.Constraint{
			row(ports.EQ, 1, []int{0, 2, 3}, []float64{1, 1, 1}),
			row(ports.EQ, 1, []int{0, 1, 4}, []float64{1, 1, 1}),
			row(ports.EQ, 1, []int{1, 2, 5}, []float64{1, 1, 1}),
		},
	}

	relaxed, err := NewSimplex().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, relaxed.Objective, 1e-9)

	res, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, 5, res.Objective, 1e-9)
	for _, v := range res.Values {
		assert.True(t, v == 0 || v == 1, "value %v not integral", v)
	}
}

func TestBranchBoundInfeasible(t *testing.T) {
	p := &ports.LPProblem{
		Objective: []float64{1, 1},
		Kinds:     []ports.VarKind{ports.Binary, ports.Binary},
		Rows: []ports.Constraint{
			row(ports.EQ, 1, []int{0, 1}, []float64{2, 2}),
		},
	}
	res, err := NewBranchBound().Solve(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, ports.LPInfeasible, res.Status)
}
