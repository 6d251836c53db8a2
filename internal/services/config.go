package services

import (
	"cvrp-route-service/internal/ports"
	"runtime"
	"time"
)

// Config tunes one engine run. The zero value of a field means "use the
// default" for every numeric setting; solver lists are used as given, so an
// engine with no solvers runs on its heuristic fallbacks alone.
type Config struct {
	// MaxIterations bounds column generation on normal instances.
	MaxIterations int
	// LargeMaxIterations applies instead when the instance has more than
	// LargeInstanceThreshold customers.
	LargeMaxIterations     int
	LargeInstanceThreshold int
	// PoolSizeFactor caps the column pool at factor × customers.
	PoolSizeFactor int
	// Tolerance is the reduced-cost threshold for an improving route.
	Tolerance float64
	// SolverTimeout bounds every individual solver call.
	SolverTimeout time.Duration
	// TimeLimit bounds the iteration phase; 0 disables it.
	TimeLimit time.Duration
	// PricingMaxArcs skips the exact pricing LP above this many arcs.
	PricingMaxArcs int
	// PricingWorkers bounds the parallel multi-start heuristic.
	PricingWorkers int

	MasterSolvers  []ports.LPSolver
	IntegerSolvers []ports.LPSolver
	PricingSolver  ports.LPSolver

	Observer Observer
	// RunID tags diagnostic events; empty is fine.
	RunID string
}

const (
	defaultMaxIterations      = 50
	defaultLargeMaxIterations = 20
	defaultLargeThreshold     = 100
	defaultPoolSizeFactor     = 10
	defaultTolerance          = 1e-6
	defaultSolverTimeout      = 30 * time.Second
	defaultPricingMaxArcs     = 2550
)

// DefaultConfig returns the engine defaults without any solver attached.
func DefaultConfig() Config {
	return Config{
		MaxIterations:          defaultMaxIterations,
		LargeMaxIterations:     defaultLargeMaxIterations,
		LargeInstanceThreshold: defaultLargeThreshold,
		PoolSizeFactor:         defaultPoolSizeFactor,
		Tolerance:              defaultTolerance,
		SolverTimeout:          defaultSolverTimeout,
		PricingMaxArcs:         defaultPricingMaxArcs,
		PricingWorkers:         runtime.GOMAXPROCS(0),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.LargeMaxIterations <= 0 {
		c.LargeMaxIterations = d.LargeMaxIterations
	}
	if c.LargeInstanceThreshold <= 0 {
		c.LargeInstanceThreshold = d.LargeInstanceThreshold
	}
	if c.PoolSizeFactor <= 0 {
		c.PoolSizeFactor = d.PoolSizeFactor
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	if c.SolverTimeout <= 0 {
		c.SolverTimeout = d.SolverTimeout
	}
	if c.PricingMaxArcs <= 0 {
		c.PricingMaxArcs = d.PricingMaxArcs
	}
	if c.PricingWorkers <= 0 {
		c.PricingWorkers = d.PricingWorkers
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	return c
}

// iterationLimit picks the iteration ceiling for an instance with n customers.
func (c Config) iterationLimit(n int) int {
	if n > c.LargeInstanceThreshold {
		return c.LargeMaxIterations
	}
	return c.MaxIterations
}
