// Package lpsolver implements ports.LPSolver: an in-process simplex and
// branch-and-bound on gonum, and the glpsol command-line solver.
package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
)

const defaultTol = 1e-10

// Simplex solves continuous linear programs with gonum's simplex. Binary
// variables are relaxed to [0, 1]; use BranchBound to enforce them.
type Simplex struct {
	Tol float64
}

func NewSimplex() *Simplex { return &Simplex{Tol: defaultTol} }

func (s *Simplex) Name() string { return "gonum-simplex" }

func (s *Simplex) Solve(ctx context.Context, p *ports.LPProblem) (*ports.LPResult, error) {
	return runWithContext(ctx, s.Name(), func() (*ports.LPResult, error) {
		return s.solve(p, nil)
	})
}

func (s *Simplex) solve(p *ports.LPProblem, fixed map[int]float64) (*ports.LPResult, error) {
	if p.NumVars() == 0 {
		return nil, fmt.Errorf("gonum simplex: problem %q has no variables", p.Name)
	}

	sf, err := toStandard(p, fixed)
	if errors.Is(err, errInfeasible) {
		return &ports.LPResult{Status: ports.LPInfeasible}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gonum simplex: %s: %w", p.Name, err)
	}

	obj, x, err := sf.solve(p.NumVars(), s.Tol)
	if errors.Is(err, errInfeasible) {
		return &ports.LPResult{Status: ports.LPInfeasible}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("gonum simplex: %s: %w", p.Name, err)
	}

	res := &ports.LPResult{Status: ports.LPOptimal, Objective: obj, Values: x}
	if p.WantDuals {
		res.Duals, err = sf.duals(len(p.Rows), s.Tol)
		if err != nil {
			return nil, fmt.Errorf("gonum simplex: %s: %w", p.Name, err)
		}
	}
	return res, nil
}

// runWithContext runs solve on its own goroutine so a caller deadline is
// honoured even though gonum's simplex cannot be interrupted. An abandoned
// solve finishes in the background and its result is dropped.
func runWithContext(ctx context.Context, name string, solve func() (*ports.LPResult, error)) (*ports.LPResult, error) {
	if err := ctx.Err(); err != nil {
		return &ports.LPResult{Status: ports.LPTimeout}, fmt.Errorf("%s: %w: %w", name, domain.ErrSolverTimeout, err)
	}

	type outcome struct {
		res *ports.LPResult
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%s: panic: %v: %w", name, r, domain.ErrSolverUnavailable)}
			}
		}()
		res, err := solve()
		done <- outcome{res: res, err: err}
	}()

	select {
	case <-ctx.Done():
		return &ports.LPResult{Status: ports.LPTimeout}, fmt.Errorf("%s: %w: %w", name, domain.ErrSolverTimeout, ctx.Err())
	case o := <-done:
		return o.res, o.err
	}
}
