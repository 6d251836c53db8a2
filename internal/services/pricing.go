package services

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	strategyExactPricing     = "exact-arc-flow"
	strategyHeuristicPricing = "multi-start-greedy"
)

// ReducedCost is the route's cost minus the duals of the customers it visits.
// Customers without a dual contribute nothing.
func ReducedCost(r domain.Route, duals DualPrices) float64 {
	rc := r.Cost()
	for _, id := range r.Customers() {
		rc -= duals[id]
	}
	return rc
}

// PricingResult is the outcome of one pricing round. Route is nil when no
// improving route was found.
type PricingResult struct {
	Route       *domain.Route
	ReducedCost float64
	Strategy    string
	Failures    []error
}

// PricingSubproblem searches for a route with negative reduced cost. It
// never fails: exact-strategy problems degrade to the heuristic.
type PricingSubproblem struct {
	in      *domain.Instance
	greedy  *GreedyConstructor
	tol     float64
	timeout time.Duration
	maxArcs int
	workers int
	chain   []Strategy[DualPrices, *PricingResult]
}

func NewPricingSubproblem(in *domain.Instance, solver ports.LPSolver, cfg Config) *PricingSubproblem {
	cfg = cfg.withDefaults()
	p := &PricingSubproblem{
		in:      in,
		greedy:  NewGreedyConstructor(in),
		tol:     cfg.Tolerance,
		timeout: cfg.SolverTimeout,
		maxArcs: cfg.PricingMaxArcs,
		workers: cfg.PricingWorkers,
	}
	p.chain = []Strategy[DualPrices, *PricingResult]{
		{Name: strategyExactPricing, Attempt: p.exactAttempt(solver)},
		{Name: strategyHeuristicPricing, Attempt: p.multiStart},
	}
	return p
}

// FindImprovingRoute returns the best improving route found, if any.
func (p *PricingSubproblem) FindImprovingRoute(ctx context.Context, duals DualPrices) *PricingResult {
	res, err := runChain(ctx, "pricing", p.chain, duals)
	if err != nil {
		// The heuristic only fails on cancellation; the caller sees ctx.
		return &PricingResult{Strategy: strategyHeuristicPricing, Failures: res.Failures}
	}
	res.Value.Strategy = res.Strategy
	res.Value.Failures = res.Failures
	return res.Value
}

func (p *PricingSubproblem) improving(r domain.Route, duals DualPrices) (*PricingResult, bool) {
	rc := ReducedCost(r, duals)
	if rc < -p.tol {
		return &PricingResult{Route: &r, ReducedCost: rc}, true
	}
	return &PricingResult{}, false
}

// exactAttempt solves the arc-flow relaxation of the elementary shortest
// path problem with capacity. Its optimum bounds every feasible route's
// reduced cost from below, so a non-negative optimum proves there is no
// improving route.
func (p *PricingSubproblem) exactAttempt(solver ports.LPSolver) func(context.Context, DualPrices) (*PricingResult, error) {
	return func(ctx context.Context, duals DualPrices) (*PricingResult, error) {
		if solver == nil {
			return nil, fmt.Errorf("no LP solver configured: %w", domain.ErrSolverUnavailable)
		}
		n := p.in.NumCustomers()
		if arcs := n * (n + 1); arcs > p.maxArcs {
			return nil, fmt.Errorf("%d arcs exceed limit %d: %w", arcs, p.maxArcs, domain.ErrSolverUnavailable)
		}

		ctx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()

		model := newArcFlowModel(p.in, duals)
		res, err := solver.Solve(ctx, model.problem)
		if err != nil {
			return nil, err
		}
		if res.Status != ports.LPOptimal {
			return nil, fmt.Errorf("arc-flow status %s", res.Status)
		}
		if res.Objective >= -p.tol {
			return &PricingResult{}, nil
		}

		ids, err := model.walk(res.Values)
		if err != nil {
			return nil, err
		}
		r, err := p.in.NewRoute(ids)
		if err != nil {
			return nil, fmt.Errorf("arc-flow route: %w", err)
		}
		if r.Load() > p.in.Capacity() {
			return nil, fmt.Errorf("arc-flow route load %d exceeds capacity %d", r.Load(), p.in.Capacity())
		}
		out, ok := p.improving(r, duals)
		if !ok {
			return nil, fmt.Errorf("arc-flow route %s has reduced cost %.6g", r, ReducedCost(r, duals))
		}
		return out, nil
	}
}

// multiStart builds one nearest-neighbour route from every customer and
// keeps the one with the lowest reduced cost. Starts run in parallel over the
// shared read-only distance matrix; ties go to the earliest start.
func (p *PricingSubproblem) multiStart(ctx context.Context, duals DualPrices) (*PricingResult, error) {
	customers := p.in.Customers()
	candidates := make([]*domain.Route, len(customers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for s := range customers {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			used := make([]bool, len(customers))
			used[s] = true
			start := customers[s]
			idx, _ := p.in.Index(start.ID)
			ids, _ := p.greedy.extend(idx, start.Demand, p.in.Dist(0, idx), []int{start.ID}, customers, used)

			r, err := p.in.NewRoute(ids)
			if err != nil {
				return fmt.Errorf("start %d: %w", start.ID, err)
			}
			candidates[s] = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := &PricingResult{}
	bestRC := math.Inf(1)
	for _, r := range candidates {
		if rc := ReducedCost(*r, duals); rc < bestRC {
			bestRC = rc
			best.Route = r
		}
	}
	if best.Route == nil || bestRC >= -p.tol {
		return &PricingResult{}, nil
	}
	best.ReducedCost = bestRC
	return best, nil
}

// arcFlowModel is the pricing LP over nodes {depot} ∪ customers (matrix
// indices 0..n). Variable x_ij selects arc i->j.
//
// Rows: one arc leaves the depot; in-flow equals out-flow at each customer;
// in-flow at most 1 per customer; Σ demand·in-flow <= capacity. The matching
// "one arc returns" row is implied by the others and left out so that the
// equality rows stay linearly independent.
type arcFlowModel struct {
	n       int
	arcs    [][2]int
	arcOf   map[[2]int]int
	problem *ports.LPProblem
	in      *domain.Instance
}

func newArcFlowModel(in *domain.Instance, duals DualPrices) *arcFlowModel {
	n := in.NumCustomers()
	m := &arcFlowModel{n: n, arcOf: make(map[[2]int]int, n*(n+1)), in: in}

	p := &ports.LPProblem{Name: "pricing-" + in.Name()}
	for i := 0; i <= n; i++ {
		for j := 0; j <= n; j++ {
			if i == j {
				continue
			}
			cost := in.Dist(i, j)
			if j > 0 {
				cost -= duals[in.Customer(j).ID]
			}
			m.arcOf[[2]int{i, j}] = len(m.arcs)
			m.arcs = append(m.arcs, [2]int{i, j})
			p.Objective = append(p.Objective, cost)
		}
	}
	p.Kinds = make([]ports.VarKind, len(m.arcs))

	depotOut := ports.Constraint{Name: "depot_out", Sense: ports.EQ, RHS: 1}
	for j := 1; j <= n; j++ {
		depotOut.Vars = append(depotOut.Vars, m.arcOf[[2]int{0, j}])
		depotOut.Coefs = append(depotOut.Coefs, 1)
	}
	p.Rows = append(p.Rows, depotOut)

	capacity := ports.Constraint{Name: "capacity", Sense: ports.LE, RHS: float64(in.Capacity())}
	for k := 1; k <= n; k++ {
		flow := ports.Constraint{Name: fmt.Sprintf("flow_%d", k), Sense: ports.EQ}
		indeg := ports.Constraint{Name: fmt.Sprintf("indeg_%d", k), Sense: ports.LE, RHS: 1}
		demand := float64(in.Customer(k).Demand)
		for i := 0; i <= n; i++ {
			if i == k {
				continue
			}
			into := m.arcOf[[2]int{i, k}]
			flow.Vars = append(flow.Vars, into, m.arcOf[[2]int{k, i}])
			flow.Coefs = append(flow.Coefs, 1, -1)
			indeg.Vars = append(indeg.Vars, into)
			indeg.Coefs = append(indeg.Coefs, 1)
			capacity.Vars = append(capacity.Vars, into)
			capacity.Coefs = append(capacity.Coefs, demand)
		}
		p.Rows = append(p.Rows, flow, indeg)
	}
	p.Rows = append(p.Rows, capacity)

	m.problem = p
	return m
}

var errBrokenWalk = errors.New("arc-flow solution does not form a route")

// walk follows arcs with value > 0.5 from the depot and returns the visited
// customer ids. Revisiting a customer or reaching a node with no such arc
// means the LP solution is too fractional to read a route from.
func (m *arcFlowModel) walk(x []float64) ([]int, error) {
	var ids []int
	seen := make([]bool, m.n+1)
	cur := 0
	for step := 0; step <= m.n; step++ {
		next := -1
		for j := 0; j <= m.n; j++ {
			if j != cur && x[m.arcOf[[2]int{cur, j}]] > 0.5 {
				next = j
				break
			}
		}
		switch {
		case next < 0:
			return nil, fmt.Errorf("%w: stalled after %d customers", errBrokenWalk, len(ids))
		case next == 0:
			if len(ids) == 0 {
				return nil, fmt.Errorf("%w: empty route", errBrokenWalk)
			}
			return ids, nil
		case seen[next]:
			return nil, fmt.Errorf("%w: customer %d revisited", errBrokenWalk, m.in.Customer(next).ID)
		}
		seen[next] = true
		ids = append(ids, m.in.Customer(next).ID)
		cur = next
	}
	return nil, fmt.Errorf("%w: no return to depot", errBrokenWalk)
}
