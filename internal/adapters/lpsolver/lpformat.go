package lpsolver

import (
	"bufio"
	"cvrp-route-service/internal/ports"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const termsPerLine = 8

// writeCPLEXLP writes p in CPLEX LP format. Variables are named x1..xn and
// rows r1..rm. Every variable appears in the objective, in index order, so
// the reader numbers columns the same way we do.
func writeCPLEXLP(w io.Writer, p *ports.LPProblem) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "\\* %s *\\\n", sanitizeComment(p.Name))
	fmt.Fprintln(bw, "Minimize")
	bw.WriteString(" obj:")
	for j, c := range p.Objective {
		writeTerm(bw, c, j, j)
	}
	bw.WriteString("\n")

	fmt.Fprintln(bw, "Subject To")
	for i, row := range p.Rows {
		fmt.Fprintf(bw, " r%d:", i+1)
		if len(row.Vars) == 0 {
			bw.WriteString(" 0 x1")
		}
		for k, j := range row.Vars {
			writeTerm(bw, row.Coefs[k], j, k)
		}
		fmt.Fprintf(bw, " %s %s\n", row.Sense, formatFloat(row.RHS))
	}

	var binaries []int
	bounds := false
	for j := range p.Objective {
		if len(p.Kinds) > 0 && p.Kinds[j] == ports.Binary {
			binaries = append(binaries, j)
			continue
		}
		if len(p.Upper) > 0 && p.Upper[j] >= 0 {
			if !bounds {
				fmt.Fprintln(bw, "Bounds")
				bounds = true
			}
			fmt.Fprintf(bw, " 0 <= x%d <= %s\n", j+1, formatFloat(p.Upper[j]))
		}
	}

	if len(binaries) > 0 {
		fmt.Fprintln(bw, "Binary")
		for _, j := range binaries {
			fmt.Fprintf(bw, " x%d\n", j+1)
		}
	}
	fmt.Fprintln(bw, "End")
	return bw.Flush()
}

func writeTerm(w *bufio.Writer, coef float64, j, pos int) {
	if pos > 0 && pos%termsPerLine == 0 {
		w.WriteString("\n   ")
	}
	sign := "+"
	if coef < 0 {
		sign = "-"
		coef = -coef
	}
	fmt.Fprintf(w, " %s %s x%d", sign, formatFloat(coef), j+1)
}

func formatFloat(v float64) string { return strconv.FormatFloat(v, 'g', 17, 64) }

func sanitizeComment(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = strings.ReplaceAll(s, "\n", " ")
	if s == "" {
		return "problem"
	}
	return s
}

// glpkSolution is the content of a glpsol -w file.
type glpkSolution struct {
	kind      string // bas or mip
	primal    string // primal status (bas) or mip status
	dual      string
	objective float64
	rowDual   []float64
	colValue  []float64
}

// parseGLPKSolution reads GLPK's plain-text solution format:
//
//	s bas <rows> <cols> <primal status> <dual status> <objective>
//	i <row> <status> <primal> <dual>
//	j <col> <status> <primal> <dual>
//
// and for integer problems
//
//	s mip <rows> <cols> <status> <objective>
//	i <row> <value>
//	j <col> <value>
//
// Comment lines start with "c"; the file ends with "e".
func parseGLPKSolution(r io.Reader) (*glpkSolution, error) {
	sol := &glpkSolution{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "c", "e":
			continue
		case "s":
			if err := sol.parseHeader(f); err != nil {
				return nil, fmt.Errorf("parse glpk solution: line %d: %w", line, err)
			}
		case "i", "j":
			if sol.kind == "" {
				return nil, fmt.Errorf("parse glpk solution: line %d: %q before header", line, f[0])
			}
			if err := sol.parseEntry(f); err != nil {
				return nil, fmt.Errorf("parse glpk solution: line %d: %w", line, err)
			}
		default:
			return nil, fmt.Errorf("parse glpk solution: line %d: unknown record %q", line, f[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse glpk solution: %w", err)
	}
	if sol.kind == "" {
		return nil, fmt.Errorf("parse glpk solution: missing header")
	}
	return sol, nil
}

func (s *glpkSolution) parseHeader(f []string) error {
	var want int
	switch {
	case len(f) >= 2 && f[1] == "bas":
		want = 7
	case len(f) >= 2 && f[1] == "mip":
		want = 6
	default:
		return fmt.Errorf("unsupported solution header %v", f)
	}
	if len(f) != want {
		return fmt.Errorf("header has %d fields, want %d", len(f), want)
	}

	rows, err := strconv.Atoi(f[2])
	if err != nil {
		return fmt.Errorf("row count: %w", err)
	}
	cols, err := strconv.Atoi(f[3])
	if err != nil {
		return fmt.Errorf("column count: %w", err)
	}

	s.kind = f[1]
	s.primal = f[4]
	if s.kind == "bas" {
		s.dual = f[5]
	}
	s.objective, err = strconv.ParseFloat(f[want-1], 64)
	if err != nil {
		return fmt.Errorf("objective: %w", err)
	}
	s.rowDual = make([]float64, rows)
	s.colValue = make([]float64, cols)
	return nil
}

func (s *glpkSolution) parseEntry(f []string) error {
	// bas: kind idx status primal dual; mip: kind idx value
	want := 3
	if s.kind == "bas" {
		want = 5
	}
	if len(f) != want {
		return fmt.Errorf("%s record has %d fields, want %d", f[0], len(f), want)
	}
	idx, err := strconv.Atoi(f[1])
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}

	if f[0] == "j" {
		if idx < 1 || idx > len(s.colValue) {
			return fmt.Errorf("column %d out of range", idx)
		}
		valueAt := 2
		if s.kind == "bas" {
			valueAt = 3
		}
		s.colValue[idx-1], err = strconv.ParseFloat(f[valueAt], 64)
		return err
	}

	if idx < 1 || idx > len(s.rowDual) {
		return fmt.Errorf("row %d out of range", idx)
	}
	if s.kind == "bas" {
		s.rowDual[idx-1], err = strconv.ParseFloat(f[4], 64)
	}
	return err
}

// result maps a parsed solution onto an LPResult for a problem with n
// variables and m rows.
func (s *glpkSolution) result(n, m int, wantDuals bool) (*ports.LPResult, error) {
	if len(s.colValue) != n {
		return nil, fmt.Errorf("glpk solution has %d columns, want %d", len(s.colValue), n)
	}

	switch s.kind {
	case "mip":
		switch s.primal {
		case "o", "f":
		case "n", "h":
			return &ports.LPResult{Status: ports.LPInfeasible}, nil
		default:
			return nil, fmt.Errorf("glpk integer status %q", s.primal)
		}
	default:
		switch {
		case s.primal == "n" || s.primal == "i":
			return &ports.LPResult{Status: ports.LPInfeasible}, nil
		case s.primal != "f" || s.dual != "f":
			return nil, fmt.Errorf("glpk basic status primal=%q dual=%q", s.primal, s.dual)
		}
	}

	res := &ports.LPResult{Status: ports.LPOptimal, Objective: s.objective, Values: s.colValue}
	if wantDuals && s.kind == "bas" {
		if len(s.rowDual) != m {
			return nil, fmt.Errorf("glpk solution has %d rows, want %d", len(s.rowDual), m)
		}
		res.Duals = s.rowDual
	}
	return res, nil
}
