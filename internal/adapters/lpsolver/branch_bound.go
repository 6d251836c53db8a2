package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"fmt"
	"maps"
	"math"
)

const defaultMaxNodes = 5000

// BranchBound solves programs with binary variables by depth-first
// branch-and-bound over Simplex relaxations. A branch fixes one fractional
// binary variable to 1 (explored first) or 0.
//
// When the node budget or the context runs out the best integer solution
// found so far is returned as optimal; without one the call fails.
type BranchBound struct {
	LP       *Simplex
	MaxNodes int
	// IntTol is how far from 0 or 1 a value may be and still count as integral.
	IntTol float64
}

func NewBranchBound() *BranchBound {
	return &BranchBound{LP: NewSimplex(), MaxNodes: defaultMaxNodes, IntTol: 1e-6}
}

func (b *BranchBound) Name() string { return "gonum-branch-bound" }

func (b *BranchBound) Solve(ctx context.Context, p *ports.LPProblem) (*ports.LPResult, error) {
	if !p.HasIntegers() {
		return b.LP.Solve(ctx, p)
	}
	return runWithContext(ctx, b.Name(), func() (*ports.LPResult, error) {
		return b.search(ctx, p)
	})
}

func (b *BranchBound) search(ctx context.Context, p *ports.LPProblem) (*ports.LPResult, error) {
	var (
		best    []float64
		bestObj = math.Inf(1)
		nodes   int
		stopped error
	)

	stack := []map[int]float64{{}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			stopped = fmt.Errorf("%s: %w: %w", b.Name(), domain.ErrSolverTimeout, err)
			break
		}
		if b.MaxNodes > 0 && nodes >= b.MaxNodes {
			stopped = fmt.Errorf("%s: node limit %d reached: %w", b.Name(), b.MaxNodes, domain.ErrSolverUnavailable)
			break
		}

		fixed := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nodes++

		res, err := b.LP.solve(p, fixed)
		if err != nil {
			return nil, err
		}
		if res.Status != ports.LPOptimal || res.Objective >= bestObj-1e-9 {
			continue
		}

		j := b.branchVar(p, res.Values)
		if j < 0 {
			best = b.round(p, res.Values)
			bestObj = res.Objective
			continue
		}

		zero := maps.Clone(fixed)
		zero[j] = 0
		one := maps.Clone(fixed)
		one[j] = 1
		stack = append(stack, zero, one)
	}

	if best == nil {
		if stopped != nil {
			status := ports.LPUnavailable
			if ctx.Err() != nil {
				status = ports.LPTimeout
			}
			return &ports.LPResult{Status: status}, stopped
		}
		return &ports.LPResult{Status: ports.LPInfeasible}, nil
	}

	obj := 0.0
	for j, v := range best {
		obj += p.Objective[j] * v
	}
	return &ports.LPResult{Status: ports.LPOptimal, Objective: obj, Values: best}, nil
}

// branchVar picks the binary variable whose value is closest to 0.5, or -1
// when every binary variable is integral.
func (b *BranchBound) branchVar(p *ports.LPProblem, x []float64) int {
	pick, bestDist := -1, math.Inf(1)
	for j, k := range p.Kinds {
		if k != ports.Binary {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		if frac <= b.IntTol || frac >= 1-b.IntTol {
			continue
		}
		if d := math.Abs(frac - 0.5); d < bestDist {
			pick, bestDist = j, d
		}
	}
	return pick
}

func (b *BranchBound) round(p *ports.LPProblem, x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for j, k := range p.Kinds {
		if k == ports.Binary {
			out[j] = math.Round(x[j])
		}
	}
	return out
}
