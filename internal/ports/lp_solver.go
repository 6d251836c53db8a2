package ports

import "context"

// LPStatus is the outcome of one solver call.
type LPStatus string

const (
	LPOptimal     LPStatus = "OPTIMAL"
	LPInfeasible  LPStatus = "INFEASIBLE"
	LPTimeout     LPStatus = "TIMEOUT"
	LPUnavailable LPStatus = "UNAVAILABLE"
)

// VarKind is the domain of a decision variable. All variables are >= 0.
type VarKind int

const (
	Continuous VarKind = iota
	Binary
)

// Sense is the relation of a constraint row to its right-hand side.
type Sense int

const (
	EQ Sense = iota
	LE
	GE
)

func (s Sense) String() string {
	switch s {
	case LE:
		return "<="
	case GE:
		return ">="
	}
	return "="
}

// Constraint is one sparse row: Σ Coefs[k]·x[Vars[k]] (Sense) RHS.
type Constraint struct {
	Name  string
	Vars  []int
	Coefs []float64
	Sense Sense
	RHS   float64
}

// LPProblem is a minimization problem over non-negative variables.
type LPProblem struct {
	Name      string
	Objective []float64
	Kinds     []VarKind
	// Upper holds optional upper bounds; a nil slice or a negative entry
	// means unbounded above.
	Upper     []float64
	Rows      []Constraint
	WantDuals bool
}

// NumVars is the number of decision variables.
func (p *LPProblem) NumVars() int { return len(p.Objective) }

// HasIntegers reports whether any variable is binary.
func (p *LPProblem) HasIntegers() bool {
	for _, k := range p.Kinds {
		if k == Binary {
			return true
		}
	}
	return false
}

// LPResult carries the solver's answer. Values and Duals are only set when
// Status is LPOptimal; Duals only when the problem asked for them.
type LPResult struct {
	Status    LPStatus
	Objective float64
	Values    []float64
	Duals     []float64
}

// LPSolver is an external (or in-process) linear / integer program solver.
//
// Implementations must honour ctx: a solve that outlives its deadline is
// reported as an LPTimeout result or a context error.
type LPSolver interface {
	Name() string
	Solve(ctx context.Context, p *LPProblem) (*LPResult, error)
}
