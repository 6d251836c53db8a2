package services

import (
	"context"
	"cvrp-route-service/internal/domain"
	"errors"
	"fmt"
	"time"
)

// State is a phase of an engine run.
type State string

const (
	StateInit              State = "INIT"
	StateIterating         State = "ITERATING"
	StateConverged         State = "CONVERGED"
	StateRouteLimitReached State = "ROUTE_LIMIT_REACHED"
	StateError             State = "ERROR"
	StateFinalizing        State = "FINALIZING"
	StateDone              State = "DONE"
)

// StopReason says why iteration ended.
type StopReason string

const (
	ReasonConverged      StopReason = "converged"
	ReasonStagnation     StopReason = "stagnation"
	ReasonIterationLimit StopReason = "iteration_limit"
	ReasonPoolLimit      StopReason = "pool_limit"
	ReasonTimeLimit      StopReason = "time_limit"
	ReasonCanceled       StopReason = "canceled"
)

// RunReport summarizes a finished run.
type RunReport struct {
	// Outcome is the state iteration ended in: CONVERGED, ROUTE_LIMIT_REACHED
	// or ERROR. State is DONE after a successful run.
	Outcome         State
	State           State
	StopReason      StopReason
	Iterations      int
	InitialColumns  int
	PoolSize        int
	MasterObjective float64
	BaselineCost    float64

	MasterStrategy   string
	PricingStrategy  string
	FinalizeStrategy string
	// Degradations counts non-fatal solver failures that forced a fallback.
	Degradations int
	Duration     time.Duration
}

// Engine runs column generation on one instance:
//
//	INIT -> ITERATING -> {CONVERGED | ROUTE_LIMIT_REACHED | ERROR} -> FINALIZING -> DONE
//
// An Engine is single use and not safe for concurrent calls.
type Engine struct {
	in      *domain.Instance
	cfg     Config
	obs     Observer
	greedy  *GreedyConstructor
	pool    *ColumnPool
	master  *MasterProblem
	pricing *PricingSubproblem

	state  State
	report RunReport
}

func NewEngine(in *domain.Instance, cfg Config) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		in:      in,
		cfg:     cfg,
		obs:     cfg.Observer,
		greedy:  NewGreedyConstructor(in),
		pool:    NewColumnPool(),
		master:  NewMasterProblem(in, cfg.MasterSolvers, cfg.SolverTimeout),
		pricing: NewPricingSubproblem(in, cfg.PricingSolver, cfg),
		state:   StateInit,
	}
}

func (e *Engine) State() State { return e.state }

// Pool exposes the column pool, frozen once the run has finished iterating.
func (e *Engine) Pool() *ColumnPool { return e.pool }

// Solve runs the engine to completion. Only ErrInfeasibleDemand,
// ErrNoInitialRoutes and ErrMasterInfeasible are returned; every solver
// failure is absorbed by a fallback and reported through the Observer.
//
// Cancelling ctx stops iteration (outcome ERROR, reason canceled) but a
// feasible solution is still produced from the pool built so far.
func (e *Engine) Solve(ctx context.Context) (*domain.Solution, *RunReport, error) {
	if e.state != StateInit {
		return nil, nil, fmt.Errorf("column generation: engine already ran (state %s)", e.state)
	}
	start := time.Now()
	defer func() { e.report.Duration = time.Since(start) }()

	baseline, err := e.seed()
	if err != nil {
		e.state = StateError
		return nil, &e.report, fmt.Errorf("column generation: %w", err)
	}

	runCtx := ctx
	if e.cfg.TimeLimit > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.TimeLimit)
		defer cancel()
	}

	e.state = StateIterating
	if err := e.iterate(ctx, runCtx); err != nil {
		e.state = StateError
		return nil, &e.report, fmt.Errorf("column generation: %w", err)
	}
	e.emit(Event{Kind: EventStopped, State: e.report.Outcome, Reason: e.report.StopReason, Err: e.stopErr()})

	e.pool.Freeze()
	e.state = StateFinalizing
	sol, err := e.finalize(ctx, baseline)
	if err != nil {
		e.state = StateError
		return nil, &e.report, fmt.Errorf("column generation: %w", err)
	}

	e.state = StateDone
	e.report.State = StateDone
	e.report.PoolSize = e.pool.Len()
	e.emit(Event{Kind: EventFinalized, State: StateDone, Objective: sol.TotalCost, Strategy: e.report.FinalizeStrategy})
	return sol, &e.report, nil
}

// seed fills the pool with a singleton route per customer, the greedy
// baseline routes and farthest-first routes. It returns the baseline.
func (e *Engine) seed() (*domain.Solution, error) {
	if err := e.in.CheckDemands(); err != nil {
		return nil, err
	}

	for _, c := range e.in.Customers() {
		r, err := e.in.NewRoute([]int{c.ID})
		if err != nil {
			return nil, fmt.Errorf("seed singleton: %w", err)
		}
		e.pool.Add(r)
	}

	baseline, err := e.greedy.SolveAll()
	if err != nil {
		return nil, err
	}
	for _, r := range baseline.Routes {
		e.pool.Add(r)
	}

	far, err := e.greedy.FarthestFirst()
	if err != nil {
		return nil, err
	}
	for _, r := range far {
		e.pool.Add(r)
	}

	if e.pool.Len() == 0 {
		return nil, domain.ErrNoInitialRoutes
	}

	e.report.InitialColumns = e.pool.Len()
	e.report.BaselineCost = baseline.TotalCost
	e.emit(Event{Kind: EventSeeded, Objective: baseline.TotalCost})
	return baseline, nil
}

// iterate alternates master and pricing until a stop condition holds. ctx is
// the caller's context, runCtx additionally carries the time limit.
func (e *Engine) iterate(ctx, runCtx context.Context) error {
	maxIter := e.cfg.iterationLimit(e.in.NumCustomers())
	maxPool := e.cfg.PoolSizeFactor * e.in.NumCustomers()

	for {
		switch {
		case ctx.Err() != nil:
			e.stop(StateError, ReasonCanceled)
			return nil
		case runCtx.Err() != nil:
			e.stop(StateRouteLimitReached, ReasonTimeLimit)
			return nil
		case e.report.Iterations >= maxIter:
			e.stop(StateRouteLimitReached, ReasonIterationLimit)
			return nil
		case e.pool.Len() >= maxPool:
			e.stop(StateRouteLimitReached, ReasonPoolLimit)
			return nil
		}

		e.report.Iterations++
		mr, err := e.master.Solve(runCtx, e.pool)
		if err != nil {
			return err
		}
		e.report.MasterObjective = mr.Objective
		e.report.MasterStrategy = mr.Strategy
		if mr.Degraded() {
			e.report.Degradations++
			e.emit(Event{Kind: EventMasterDegraded, Strategy: mr.Strategy, Err: errors.Join(mr.Failures...)})
		}
		e.emit(Event{Kind: EventMasterSolved, Objective: mr.Objective, Duals: mr.Duals, Strategy: mr.Strategy})

		pr := e.pricing.FindImprovingRoute(runCtx, mr.Duals)
		e.report.PricingStrategy = pr.Strategy
		if len(pr.Failures) > 0 {
			e.report.Degradations++
			e.emit(Event{Kind: EventPricingDegraded, Strategy: pr.Strategy, Err: fmt.Errorf("%w: %w", domain.ErrPricingDegraded, errors.Join(pr.Failures...))})
		}

		// A pricing round cut short by the deadline proves nothing.
		if runCtx.Err() != nil {
			continue
		}
		if pr.Route == nil {
			e.stop(StateConverged, ReasonConverged)
			return nil
		}
		if !e.pool.Add(*pr.Route) {
			e.stop(StateConverged, ReasonStagnation)
			return nil
		}
		e.emit(Event{Kind: EventColumnAdded, Column: pr.Route, ReducedCost: pr.ReducedCost, Strategy: pr.Strategy})
	}
}

func (e *Engine) stop(outcome State, reason StopReason) {
	e.state = outcome
	e.report.Outcome = outcome
	e.report.StopReason = reason
}

func (e *Engine) stopErr() error {
	switch e.report.StopReason {
	case ReasonIterationLimit, ReasonPoolLimit, ReasonTimeLimit:
		return fmt.Errorf("%s: %w", e.report.StopReason, domain.ErrRouteLimitReached)
	case ReasonCanceled:
		return context.Canceled
	}
	return nil
}

func (e *Engine) emit(ev Event) {
	ev.RunID = e.cfg.RunID
	ev.At = time.Now()
	if ev.State == "" {
		ev.State = e.state
	}
	ev.Iteration = e.report.Iterations
	ev.PoolSize = e.pool.Len()
	e.obs.OnEvent(ev)
}
