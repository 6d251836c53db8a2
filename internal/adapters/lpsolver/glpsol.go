package lpsolver

import (
	"bytes"
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Glpsol solves problems with the GLPK command-line solver. The problem is
// written in CPLEX LP format to a temporary directory and the solution read
// back from glpsol's -w output.
type Glpsol struct {
	// Path is the executable, resolved through PATH when not absolute.
	Path string
	// TempDir holds the per-call working directories; empty means os.TempDir.
	TempDir string
}

func NewGlpsol(path string) *Glpsol {
	if path == "" {
		path = "glpsol"
	}
	return &Glpsol{Path: path}
}

func (g *Glpsol) Name() string { return "glpsol" }

// Available reports whether the executable can be found.
func (g *Glpsol) Available() bool {
	_, err := exec.LookPath(g.Path)
	return err == nil
}

func (g *Glpsol) Solve(ctx context.Context, p *ports.LPProblem) (*ports.LPResult, error) {
	bin, err := exec.LookPath(g.Path)
	if err != nil {
		return &ports.LPResult{Status: ports.LPUnavailable}, fmt.Errorf("glpsol: %w: %w", domain.ErrSolverUnavailable, err)
	}
	if p.NumVars() == 0 {
		return nil, fmt.Errorf("glpsol: problem %q has no variables", p.Name)
	}

	dir, err := os.MkdirTemp(g.TempDir, "glpsol-*")
	if err != nil {
		return nil, fmt.Errorf("glpsol: create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	lpFile := filepath.Join(dir, "problem.lp")
	solFile := filepath.Join(dir, "problem.sol")

	f, err := os.Create(lpFile)
	if err != nil {
		return nil, fmt.Errorf("glpsol: create problem file: %w", err)
	}
	if err := writeCPLEXLP(f, p); err != nil {
		f.Close()
		return nil, fmt.Errorf("glpsol: write problem file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("glpsol: close problem file: %w", err)
	}

	args := []string{"--lp", lpFile, "-w", solFile}
	if dl, ok := ctx.Deadline(); ok {
		secs := int(math.Ceil(time.Until(dl).Seconds()))
		args = append(args, "--tmlim", strconv.Itoa(max(secs, 1)))
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return &ports.LPResult{Status: ports.LPTimeout}, fmt.Errorf("glpsol: %w: %w", domain.ErrSolverTimeout, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("glpsol: exit %d: %s", exitErr.ExitCode(), lastLine(out.Bytes()))
		}
		return nil, fmt.Errorf("glpsol: run: %w", err)
	}

	sf, err := os.Open(solFile)
	if err != nil {
		return nil, fmt.Errorf("glpsol: open solution: %w", err)
	}
	defer sf.Close()

	sol, err := parseGLPKSolution(sf)
	if err != nil {
		return nil, fmt.Errorf("glpsol: %w", err)
	}
	res, err := sol.result(p.NumVars(), len(p.Rows), p.WantDuals)
	if err != nil {
		return nil, fmt.Errorf("glpsol: %w", err)
	}
	return res, nil
}

func lastLine(b []byte) string {
	b = bytes.TrimSpace(b)
	if i := bytes.LastIndexByte(b, '\n'); i >= 0 {
		b = b[i+1:]
	}
	return string(b)
}
