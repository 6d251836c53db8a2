package services

import (
	"cmp"
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"slices"
)

const (
	strategyGreedyCover = "greedy-cover"
	strategyBaseline    = "seed-baseline"
)

// finalize selects an integer partition from the frozen pool: the integer
// master through each configured solver, else the greedy cover. The cheaper
// of that selection and the seeded baseline is validated and returned.
func (e *Engine) finalize(ctx context.Context, baseline *domain.Solution) (*domain.Solution, error) {
	routes := e.pool.Routes()

	var chain []Strategy[[]domain.Route, *domain.Solution]
	for _, s := range e.cfg.IntegerSolvers {
		chain = append(chain, Strategy[[]domain.Route, *domain.Solution]{
			Name:    "ilp:" + s.Name(),
			Attempt: e.integerAttempt(s),
		})
	}
	chain = append(chain, Strategy[[]domain.Route, *domain.Solution]{
		Name:    strategyGreedyCover,
		Attempt: e.greedyCover,
	})

	res, err := runChain(ctx, "finalize", chain, routes)
	if err != nil {
		return nil, fmt.Errorf("finalize: %w", err)
	}
	if len(res.Failures) > 0 {
		e.report.Degradations++
		e.emit(Event{Kind: EventFinalizeDegraded, Strategy: res.Strategy, Err: errors.Join(res.Failures...)})
	}

	sol, strategy := res.Value, res.Strategy
	if baseline != nil && baseline.TotalCost < sol.TotalCost-e.cfg.Tolerance {
		sol, strategy = baseline, strategyBaseline
	}
	if ok, v := e.greedy.ValidateSolution(sol.Routes); !ok {
		return nil, fmt.Errorf("finalize: %s produced an invalid solution: %w", strategy, v)
	}

	e.report.FinalizeStrategy = strategy
	return sol, nil
}

func (e *Engine) integerAttempt(s ports.LPSolver) func(context.Context, []domain.Route) (*domain.Solution, error) {
	return func(ctx context.Context, routes []domain.Route) (*domain.Solution, error) {
		ctx, cancel := context.WithTimeout(ctx, e.cfg.SolverTimeout)
		defer cancel()

		res, err := s.Solve(ctx, setPartitionProblem(e.in, routes, true))
		if err != nil {
			return nil, err
		}
		if res.Status != ports.LPOptimal {
			return nil, fmt.Errorf("status %s", res.Status)
		}

		var picked []domain.Route
		for j, v := range res.Values {
			if v > 0.5 {
				picked = append(picked, routes[j])
			}
		}
		if ok, v := e.greedy.ValidateSolution(picked); !ok {
			return nil, fmt.Errorf("integer selection invalid: %w", v)
		}
		return domain.NewSolution(picked), nil
	}
}

// greedyCover takes routes in order of cost per customer, keeping a route
// only if it covers something new without covering anything twice. Customers
// left over get singleton routes.
func (e *Engine) greedyCover(_ context.Context, routes []domain.Route) (*domain.Solution, error) {
	sorted := slices.Clone(routes)
	// Equal cost per customer: the longer route first, then pool order.
	slices.SortStableFunc(sorted, func(a, b domain.Route) int {
		return cmp.Or(cmp.Compare(a.Efficiency(), b.Efficiency()), cmp.Compare(b.Len(), a.Len()))
	})

	covered := make(map[int]bool, e.in.NumCustomers())
	var picked []domain.Route
	for _, r := range sorted {
		ids := r.Customers()
		if slices.ContainsFunc(ids, func(id int) bool { return covered[id] }) {
			continue
		}
		for _, id := range ids {
			covered[id] = true
		}
		picked = append(picked, r)
	}

	for _, c := range e.in.Customers() {
		if covered[c.ID] {
			continue
		}
		r, err := e.in.NewRoute([]int{c.ID})
		if err != nil {
			return nil, err
		}
		picked = append(picked, r)
	}
	return domain.NewSolution(picked), nil
}
