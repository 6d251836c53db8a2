package domain

import "errors"

// Fatal errors. These are the only failures the engine reports to its caller;
// they are wrapped with context and matched with errors.Is.
var (
	// ErrInfeasibleDemand means a customer's demand exceeds vehicle capacity,
	// so no feasible solution exists.
	ErrInfeasibleDemand = errors.New("infeasible demand")
	// ErrNoInitialRoutes means seeding produced an empty column pool.
	ErrNoInitialRoutes = errors.New("no initial routes")
	// ErrMasterInfeasible means neither the LP solvers nor the approximation
	// could price the column pool (typically a pool that misses customers).
	ErrMasterInfeasible = errors.New("master problem infeasible")
)

// Recoverable conditions. They never escape the engine; observers receive them
// on diagnostic events.
var (
	ErrRouteLimitReached = errors.New("route limit reached")
	ErrSolverUnavailable = errors.New("solver unavailable")
	ErrSolverTimeout     = errors.New("solver timeout")
	ErrPricingDegraded   = errors.New("pricing degraded to heuristic")
)

// ErrInvalidInstance is returned when instance data violates the input contract.
var ErrInvalidInstance = errors.New("invalid instance")

// ErrRunNotFound is returned by run repositories for unknown ids.
var ErrRunNotFound = errors.New("run not found")
