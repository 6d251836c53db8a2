package services

import (
	"context"
	"crypto/sha256"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/metrics"
	"cvrp-route-service/internal/platform/obs"
	"cvrp-route-service/internal/ports"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Algorithm selects what a plan request runs.
type Algorithm string

const (
	AlgorithmGreedy           Algorithm = "greedy"
	AlgorithmColumnGeneration Algorithm = "column_generation"
	AlgorithmBoth             Algorithm = "both"
)

// ParseAlgorithm accepts the algorithm names plus "cg"; empty means both.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both":
		return AlgorithmBoth, nil
	case "greedy":
		return AlgorithmGreedy, nil
	case "column_generation", "column-generation", "cg":
		return AlgorithmColumnGeneration, nil
	}
	return "", fmt.Errorf("parse algorithm: unknown algorithm %q", s)
}

// PlanResult is the outcome of one plan request. Solution is the best of the
// solutions computed; Greedy and ColumnGeneration are set when they ran.
type PlanResult struct {
	Run              *ports.SolveRun
	Solution         *domain.Solution
	Greedy           *domain.Solution
	ColumnGeneration *domain.Solution
	Report           *RunReport
	Violation        *domain.Violation
	Cached           bool
}

// Valid reports whether Solution passed validation.
func (r *PlanResult) Valid() bool { return r.Violation == nil }

// Planner runs solve requests end to end: result cache lookup, the selected
// algorithms, validation, persistence. Repository and cache are optional.
type Planner struct {
	cfg      Config
	repo     ports.RunRepository
	cache    ports.ResultCache
	cacheTTL time.Duration
	observer func(runID string) Observer
}

type PlannerOption func(*Planner)

func WithRunRepository(repo ports.RunRepository) PlannerOption {
	return func(p *Planner) { p.repo = repo }
}

func WithResultCache(c ports.ResultCache, ttl time.Duration) PlannerOption {
	return func(p *Planner) { p.cache, p.cacheTTL = c, ttl }
}

// WithObserver attaches a per-run observer factory in addition to the
// logging and metrics observers every run gets.
func WithObserver(f func(runID string) Observer) PlannerOption {
	return func(p *Planner) { p.observer = f }
}

func NewPlanner(cfg Config, opts ...PlannerOption) *Planner {
	p := &Planner{cfg: cfg}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Plan solves in with the selected algorithm.
func (p *Planner) Plan(ctx context.Context, in *domain.Instance, alg Algorithm) (res *PlanResult, err error) {
	defer obs.Time(ctx, "plan")(&err)

	key := Fingerprint(in, alg)
	if cached, ok := p.lookup(ctx, key, in); ok {
		return cached, nil
	}

	start := time.Now()
	runID := uuid.NewString()
	res = &PlanResult{}

	if alg == AlgorithmGreedy || alg == AlgorithmBoth {
		res.Greedy, err = NewGreedyConstructor(in).SolveAll()
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		res.Solution = res.Greedy
	}

	if alg == AlgorithmColumnGeneration || alg == AlgorithmBoth {
		cfg := p.cfg
		cfg.RunID = runID
		observers := MultiObserver{NewLogObserver(slog.Default()), NewMetricsObserver()}
		if p.observer != nil {
			observers = append(observers, p.observer(runID))
		}
		if cfg.Observer != nil {
			observers = append(observers, cfg.Observer)
		}
		cfg.Observer = observers

		res.ColumnGeneration, res.Report, err = NewEngine(in, cfg).Solve(ctx)
		if err != nil {
			return nil, fmt.Errorf("plan: %w", err)
		}
		if res.Solution == nil || res.ColumnGeneration.TotalCost <= res.Solution.TotalCost {
			res.Solution = res.ColumnGeneration
		}
	}
	if res.Solution == nil {
		return nil, fmt.Errorf("plan: unsupported algorithm %q", alg)
	}

	if ok, v := NewGreedyConstructor(in).ValidateSolution(res.Solution.Routes); !ok {
		res.Violation = v
	}

	dur := time.Since(start)
	metrics.SolveDuration.WithLabelValues(string(alg)).Observe(dur.Seconds())
	res.Run = newSolveRun(runID, in, alg, res, dur)

	if p.repo != nil {
		if err := p.repo.SaveRun(ctx, res.Run); err != nil {
			return nil, fmt.Errorf("plan: save run: %w", err)
		}
	}
	if p.cache != nil && res.Valid() {
		if err := p.cache.Put(ctx, key, res.Run, p.cacheTTL); err != nil {
			slog.WarnContext(ctx, "result cache put failed", "key", key, "err", err)
		}
	}
	return res, nil
}

func (p *Planner) lookup(ctx context.Context, key string, in *domain.Instance) (*PlanResult, bool) {
	if p.cache == nil {
		return nil, false
	}
	run, ok, err := p.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "result cache get failed", "key", key, "err", err)
		return nil, false
	case !ok:
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	sol, err := SolutionFromRun(in, run)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		slog.WarnContext(ctx, "cached run does not match instance", "key", key, "err", err)
		return nil, false
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &PlanResult{Run: run, Solution: sol, Cached: true}, true
}

// SolutionFromRun rebuilds a solution from stored routes, recomputing costs
// from the instance.
func SolutionFromRun(in *domain.Instance, run *ports.SolveRun) (*domain.Solution, error) {
	routes := make([]domain.Route, 0, len(run.Routes))
	for _, rr := range run.Routes {
		r, err := in.NewRoute(rr.Customers)
		if err != nil {
			return nil, fmt.Errorf("solution from run %s: %w", run.ID, err)
		}
		routes = append(routes, r)
	}
	sol := domain.NewSolution(routes)
	if ok, v := NewGreedyConstructor(in).ValidateSolution(sol.Routes); !ok {
		return nil, fmt.Errorf("solution from run %s: %w", run.ID, v)
	}
	return sol, nil
}

func newSolveRun(id string, in *domain.Instance, alg Algorithm, res *PlanResult, dur time.Duration) *ports.SolveRun {
	run := &ports.SolveRun{
		ID:           id,
		InstanceName: in.Name(),
		Algorithm:    string(alg),
		TotalCost:    res.Solution.TotalCost,
		Vehicles:     res.Solution.Vehicles(),
		Duration:     dur,
		CreatedAt:    time.Now().UTC(),
	}
	for _, r := range res.Solution.Routes {
		run.Routes = append(run.Routes, ports.RunRoute{Customers: r.Customers(), Cost: r.Cost(), Load: r.Load()})
	}
	if res.Report != nil {
		run.StopReason = string(res.Report.StopReason)
		run.Iterations = res.Report.Iterations
	}
	return run
}

// Fingerprint identifies an instance and algorithm for result caching.
func Fingerprint(in *domain.Instance, alg Algorithm) string {
	h := sha256.New()
	var b strings.Builder
	node := func(n domain.Node) {
		b.WriteString(strconv.Itoa(n.ID))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(n.X, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(n.Y, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(n.Demand))
		b.WriteByte(';')
	}
	b.WriteString(string(alg))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(in.Capacity()))
	b.WriteByte('|')
	node(in.Depot())
	for _, c := range in.Customers() {
		node(c)
	}
	h.Write([]byte(b.String()))
	return hex.EncodeToString(h.Sum(nil))
}

// IsFatal reports whether err is one of the engine's fatal conditions, as
// opposed to an infrastructure failure.
func IsFatal(err error) bool {
	return errors.Is(err, domain.ErrInfeasibleDemand) ||
		errors.Is(err, domain.ErrNoInitialRoutes) ||
		errors.Is(err, domain.ErrMasterInfeasible)
}
