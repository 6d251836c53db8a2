package services

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"fmt"
	"math"
	"time"
)

// DualPrices maps a customer id to the dual value of its covering row.
type DualPrices map[int]float64

const strategyApproximate = "approximate"

// MasterResult is the outcome of one master solve.
type MasterResult struct {
	Objective float64
	Duals     DualPrices
	// Values holds the LP primal per pooled route; nil for the approximation.
	Values   []float64
	Strategy string
	// Failures are the errors of the strategies tried before Strategy.
	Failures []error
}

// Degraded reports whether the duals came from the approximation.
func (r *MasterResult) Degraded() bool { return r.Strategy == strategyApproximate }

// MasterProblem is the LP relaxation of the set-partitioning model over a
// column pool: minimize Σ cost·x subject to every customer covered exactly
// once, x >= 0.
type MasterProblem struct {
	in      *domain.Instance
	timeout time.Duration
	chain   []Strategy[[]domain.Route, *MasterResult]
}

// NewMasterProblem tries each solver in order, then falls back to the dual
// approximation, which always succeeds on a covering pool.
func NewMasterProblem(in *domain.Instance, solvers []ports.LPSolver, timeout time.Duration) *MasterProblem {
	m := &MasterProblem{in: in, timeout: timeout}
	for _, s := range solvers {
		m.chain = append(m.chain, Strategy[[]domain.Route, *MasterResult]{
			Name:    "lp:" + s.Name(),
			Attempt: m.lpAttempt(s),
		})
	}
	m.chain = append(m.chain, Strategy[[]domain.Route, *MasterResult]{
		Name:    strategyApproximate,
		Attempt: m.approximate,
	})
	return m
}

// Solve prices the pool. It fails with ErrMasterInfeasible when the pool
// leaves a customer uncovered (including an empty pool).
func (m *MasterProblem) Solve(ctx context.Context, pool *ColumnPool) (*MasterResult, error) {
	if pool.Len() == 0 {
		return nil, fmt.Errorf("master: empty column pool: %w", domain.ErrMasterInfeasible)
	}
	if missing := pool.Uncovered(m.in); len(missing) > 0 {
		return nil, fmt.Errorf("master: customers %v not covered by any column: %w", missing, domain.ErrMasterInfeasible)
	}

	res, err := runChain(ctx, "master", m.chain, pool.Routes())
	if err != nil {
		return nil, fmt.Errorf("master: %w: %w", domain.ErrMasterInfeasible, err)
	}
	res.Value.Strategy = res.Strategy
	res.Value.Failures = res.Failures
	return res.Value, nil
}

func (m *MasterProblem) lpAttempt(s ports.LPSolver) func(context.Context, []domain.Route) (*MasterResult, error) {
	return func(ctx context.Context, routes []domain.Route) (*MasterResult, error) {
		ctx, cancel := context.WithTimeout(ctx, m.timeout)
		defer cancel()

		p := setPartitionProblem(m.in, routes, false)
		res, err := s.Solve(ctx, p)
		if err != nil {
			return nil, err
		}
		if res.Status != ports.LPOptimal {
			return nil, fmt.Errorf("status %s", res.Status)
		}
		if len(res.Duals) != len(p.Rows) {
			return nil, fmt.Errorf("solver returned %d duals for %d rows", len(res.Duals), len(p.Rows))
		}

		duals := make(DualPrices, m.in.NumCustomers())
		for i, c := range m.in.Customers() {
			duals[c.ID] = res.Duals[i]
		}
		return &MasterResult{Objective: res.Objective, Duals: duals, Values: res.Values}, nil
	}
}

// approximate sets each customer's dual to the best cost per customer among
// the routes visiting it, and the objective to the sum of those duals. It is
// a cheap, non-optimal stand-in used only when no LP solver answers.
func (m *MasterProblem) approximate(_ context.Context, routes []domain.Route) (*MasterResult, error) {
	duals := make(DualPrices, m.in.NumCustomers())
	for _, c := range m.in.Customers() {
		duals[c.ID] = math.Inf(1)
	}
	for _, r := range routes {
		eff := r.Efficiency()
		for _, id := range r.Customers() {
			if eff < duals[id] {
				duals[id] = eff
			}
		}
	}

	obj := 0.0
	for _, c := range m.in.Customers() {
		v := duals[c.ID]
		if math.IsInf(v, 1) {
			return nil, fmt.Errorf("customer %d has no column", c.ID)
		}
		obj += v
	}
	return &MasterResult{Objective: obj, Duals: duals}, nil
}

// setPartitionProblem builds the master model over routes with one row per
// customer in instance order. binary selects the integer variant.
func setPartitionProblem(in *domain.Instance, routes []domain.Route, binary bool) *ports.LPProblem {
	p := &ports.LPProblem{
		Name:      "master-" + in.Name(),
		Objective: make([]float64, len(routes)),
		Kinds:     make([]ports.VarKind, len(routes)),
		WantDuals: !binary,
	}
	if binary {
		p.Name = "integer-" + p.Name
	}

	row := make(map[int]int, in.NumCustomers())
	for i, c := range in.Customers() {
		row[c.ID] = i
		p.Rows = append(p.Rows, ports.Constraint{Name: fmt.Sprintf("customer_%d", c.ID), Sense: ports.EQ, RHS: 1})
	}
	for j, r := range routes {
		p.Objective[j] = r.Cost()
		if binary {
			p.Kinds[j] = ports.Binary
		}
		for _, id := range r.Customers() {
			i := row[id]
			p.Rows[i].Vars = append(p.Rows[i].Vars, j)
			p.Rows[i].Coefs = append(p.Rows[i].Coefs, 1)
		}
	}
	return p
}
