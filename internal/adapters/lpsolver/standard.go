package lpsolver

import (
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

const eps = 1e-9

var (
	errInfeasible = errors.New("problem infeasible")
	errUnbounded  = errors.New("problem unbounded")
)

// standardForm is min cᵀx s.t. Ax = b, x >= 0, derived from an LPProblem
// with some variables fixed. Columns are the free structural variables
// followed by one slack per inequality row.
type standardForm struct {
	c []float64
	a [][]float64
	b []float64

	structural []int // original variable per structural column
	fixed      map[int]float64
	offset     float64 // objective contribution of fixed variables

	rowOrig []int     // original constraint per std row, -1 for bound rows
	rowSign []float64 // -1 when the std row is the negated original
}

type sparseRow struct {
	coefs map[int]float64 // original var -> coefficient, free vars only
	sense ports.Sense
	rhs   float64
	orig  int
}

// toStandard converts p into standard form. fixed maps original variables to
// constant values; they are eliminated from the problem. Binary variables are
// relaxed to [0, 1].
func toStandard(p *ports.LPProblem, fixed map[int]float64) (*standardForm, error) {
	n := p.NumVars()
	if len(p.Kinds) != 0 && len(p.Kinds) != n {
		return nil, fmt.Errorf("to standard form: %d kinds for %d variables", len(p.Kinds), n)
	}
	if len(p.Upper) != 0 && len(p.Upper) != n {
		return nil, fmt.Errorf("to standard form: %d bounds for %d variables", len(p.Upper), n)
	}

	sf := &standardForm{fixed: fixed}
	for j, v := range fixed {
		sf.offset += p.Objective[j] * v
	}

	rows := make([]sparseRow, 0, len(p.Rows))
	for i, con := range p.Rows {
		if len(con.Vars) != len(con.Coefs) {
			return nil, fmt.Errorf("to standard form: row %d has %d vars and %d coefficients", i, len(con.Vars), len(con.Coefs))
		}
		r := sparseRow{coefs: make(map[int]float64, len(con.Vars)), sense: con.Sense, rhs: con.RHS, orig: i}
		for k, j := range con.Vars {
			if j < 0 || j >= n {
				return nil, fmt.Errorf("to standard form: row %d references variable %d of %d", i, j, n)
			}
			if v, ok := fixed[j]; ok {
				r.rhs -= con.Coefs[k] * v
				continue
			}
			r.coefs[j] += con.Coefs[k]
		}
		rows = append(rows, r)
	}

	implied := impliedUpper(p)
	for j := 0; j < n; j++ {
		if _, ok := fixed[j]; ok {
			continue
		}
		u := upperBound(p, j)
		if u < 0 || implied[j] <= u+eps {
			continue
		}
		rows = append(rows, sparseRow{coefs: map[int]float64{j: 1}, sense: ports.LE, rhs: u, orig: -1})
	}

	kept := rows[:0]
	for _, r := range rows {
		for j, v := range r.coefs {
			if math.Abs(v) < eps {
				delete(r.coefs, j)
			}
		}
		if len(r.coefs) > 0 {
			kept = append(kept, r)
			continue
		}
		if !constantRowHolds(r) {
			return nil, errInfeasible
		}
	}
	rows = kept

	used := make(map[int]bool, n)
	for _, r := range rows {
		for j := range r.coefs {
			used[j] = true
		}
	}
	col := make(map[int]int, n)
	for j := 0; j < n; j++ {
		if _, ok := fixed[j]; ok {
			continue
		}
		if !used[j] {
			// A free variable in no row sits at zero unless it improves the
			// objective without limit.
			if p.Objective[j] < -eps {
				return nil, errUnbounded
			}
			continue
		}
		col[j] = len(sf.structural)
		sf.structural = append(sf.structural, j)
	}

	rows, err := dropDuplicateRows(rows)
	if err != nil {
		return nil, err
	}

	nStruct := len(sf.structural)
	nSlack := 0
	for _, r := range rows {
		if r.sense != ports.EQ {
			nSlack++
		}
	}
	width := nStruct + nSlack

	sf.c = make([]float64, width)
	for k, j := range sf.structural {
		sf.c[k] = p.Objective[j]
	}

	slack := nStruct
	for _, r := range rows {
		row := make([]float64, width)
		for j, v := range r.coefs {
			row[col[j]] = v
		}
		switch r.sense {
		case ports.LE:
			row[slack] = 1
			slack++
		case ports.GE:
			row[slack] = -1
			slack++
		}
		sign := 1.0
		rhs := r.rhs
		if rhs < 0 {
			sign = -1
			rhs = -rhs
			for k := range row {
				row[k] = -row[k]
			}
		}
		sf.a = append(sf.a, row)
		sf.b = append(sf.b, rhs)
		sf.rowOrig = append(sf.rowOrig, r.orig)
		sf.rowSign = append(sf.rowSign, sign)
	}

	if len(sf.a) > width {
		return nil, fmt.Errorf("to standard form: %d rows exceed %d columns", len(sf.a), width)
	}
	return sf, nil
}

func upperBound(p *ports.LPProblem, j int) float64 {
	u := -1.0
	if len(p.Upper) > 0 && p.Upper[j] >= 0 {
		u = p.Upper[j]
	}
	if len(p.Kinds) > 0 && p.Kinds[j] == ports.Binary && (u < 0 || u > 1) {
		u = 1
	}
	return u
}

// impliedUpper returns, per variable, the tightest upper bound implied by a
// row with only non-negative coefficients and sense = or <=.
func impliedUpper(p *ports.LPProblem) []float64 {
	out := make([]float64, p.NumVars())
	for j := range out {
		out[j] = math.Inf(1)
	}
	for _, con := range p.Rows {
		if con.Sense == ports.GE || slices.ContainsFunc(con.Coefs, func(v float64) bool { return v < 0 }) {
			continue
		}
		for k, j := range con.Vars {
			if con.Coefs[k] > eps {
				out[j] = math.Min(out[j], con.RHS/con.Coefs[k])
			}
		}
	}
	return out
}

func constantRowHolds(r sparseRow) bool {
	switch r.sense {
	case ports.LE:
		return r.rhs >= -eps
	case ports.GE:
		return r.rhs <= eps
	}
	return math.Abs(r.rhs) <= eps
}

// dropDuplicateRows removes equality rows whose coefficients repeat an
// earlier equality row. Repeated rows make the constraint matrix rank
// deficient, which the simplex rejects.
func dropDuplicateRows(rows []sparseRow) ([]sparseRow, error) {
	seen := make(map[string]float64, len(rows))
	out := rows[:0]
	for _, r := range rows {
		if r.sense != ports.EQ {
			out = append(out, r)
			continue
		}
		key := rowKey(r.coefs)
		if rhs, dup := seen[key]; dup {
			if math.Abs(rhs-r.rhs) > eps {
				return nil, errInfeasible
			}
			continue
		}
		seen[key] = r.rhs
		out = append(out, r)
	}
	return out, nil
}

func rowKey(coefs map[int]float64) string {
	vars := make([]int, 0, len(coefs))
	for j := range coefs {
		vars = append(vars, j)
	}
	slices.Sort(vars)
	var b strings.Builder
	for _, j := range vars {
		b.WriteString(strconv.Itoa(j))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(coefs[j], 'g', -1, 64))
		b.WriteByte(';')
	}
	return b.String()
}

// solve runs the primal simplex and maps the result back onto the original
// variables.
func (sf *standardForm) solve(n int, tol float64) (obj float64, x []float64, err error) {
	x = make([]float64, n)
	for j, v := range sf.fixed {
		x[j] = v
	}
	if len(sf.a) == 0 {
		return sf.offset, x, nil
	}

	z, sx, err := simplex(sf.c, sf.a, sf.b, tol)
	if err != nil {
		return 0, nil, err
	}
	for k, j := range sf.structural {
		x[j] = sx[k]
	}
	return z + sf.offset, x, nil
}

// duals solves the dual program max bᵀy s.t. Aᵀy <= c with y free, written as
// min -bᵀy⁺ + bᵀy⁻ s.t. Aᵀy⁺ - Aᵀy⁻ + t = c, and maps y back onto the rows of
// the original problem. Rows dropped during conversion get a zero price.
func (sf *standardForm) duals(numRows int, tol float64) ([]float64, error) {
	out := make([]float64, numRows)
	m := len(sf.a)
	if m == 0 {
		return out, nil
	}
	n := len(sf.c)

	c := make([]float64, 2*m+n)
	for i := 0; i < m; i++ {
		c[i] = -sf.b[i]
		c[m+i] = sf.b[i]
	}
	a := make([][]float64, n)
	for j := 0; j < n; j++ {
		row := make([]float64, 2*m+n)
		for i := 0; i < m; i++ {
			row[i] = sf.a[i][j]
			row[m+i] = -sf.a[i][j]
		}
		row[2*m+j] = 1
		a[j] = row
	}

	_, y, err := simplex(c, a, sf.c, tol)
	if err != nil {
		return nil, fmt.Errorf("dual program: %w", err)
	}
	for i := 0; i < m; i++ {
		if orig := sf.rowOrig[i]; orig >= 0 {
			out[orig] = (y[i] - y[m+i]) * sf.rowSign[i]
		}
	}
	return out, nil
}

// simplex calls gonum's simplex on rows, flipping rows with a negative
// right-hand side first.
func simplex(c []float64, rows [][]float64, b []float64, tol float64) (float64, []float64, error) {
	m, n := len(rows), len(c)
	data := make([]float64, 0, m*n)
	rhs := make([]float64, m)
	for i, row := range rows {
		sign := 1.0
		if b[i] < 0 {
			sign = -1
		}
		for _, v := range row {
			data = append(data, sign*v)
		}
		rhs[i] = sign * b[i]
	}

	z, x, err := lp.Simplex(c, mat.NewDense(m, n, data), rhs, tol, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return 0, nil, errInfeasible
	case errors.Is(err, lp.ErrUnbounded):
		return 0, nil, errUnbounded
	case err != nil:
		return 0, nil, fmt.Errorf("simplex: %w", err)
	}
	return z, x, nil
}
