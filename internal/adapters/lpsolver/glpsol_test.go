package lpsolver

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCPLEXLP(t *testing.T) {
	p := &ports.LPProblem{
		Name:      "demo",
		Objective: []float64{3, -1.5},
		Kinds:     []ports.VarKind{ports.Continuous, ports.Binary},
		Upper:     []float64{4, -1},
		Rows: []ports.Constraint{
			row(ports.EQ, 1, []int{0, 1}, []float64{1, 1}),
			row(ports.GE, 0.5, []int{0}, []float64{2}),
		},
	}

	var sb strings.Builder
	require.NoError(t, writeCPLEXLP(&sb, p))
	out := sb.String()

	assert.Contains(t, out, "\\* demo *\\")
	assert.Contains(t, out, " obj: + 3 x1 - 1.5 x2\n")
	assert.Contains(t, out, " r1: + 1 x1 + 1 x2 = 1\n")
	assert.Contains(t, out, " r2: + 2 x1 >= 0.5\n")
	assert.Contains(t, out, "Bounds\n 0 <= x1 <= 4\n")
	assert.Contains(t, out, "Binary\n x2\n")
	assert.True(t, strings.HasSuffix(out, "End\n"))
}

func TestParseGLPKBasicSolution(t *testing.T) {
	const sol = `c Problem:    
c Rows:       2
c Columns:    3
c
s bas 2 3 f f 3
i 1 u 1 1.5
i 2 u 1 1.5
j 1 l 0 0.5
j 2 l 0 0.5
j 3 b 1 0
e o f
`
	parsed, err := parseGLPKSolution(strings.NewReader(sol))
	require.NoError(t, err)

	res, err := parsed.result(3, 2, true)
	require.NoError(t, err)
	assert.Equal(t, ports.LPOptimal, res.Status)
	assert.Equal(t, 3.0, res.Objective)
	assert.Equal(t, []float64{0, 0, 1}, res.Values)
	assert.Equal(t, []float64{1.5, 1.5}, res.Duals)
}

func TestParseGLPKMipSolution(t *testing.T) {
	const sol = `s mip 1 3 o -9
i 1 5
j 1 1
j 2 1
j 3 0
e o f
`
	parsed, err := parseGLPKSolution(strings.NewReader(sol))
	require.NoError(t, err)

	res, err := parsed.result(3, 1, false)
	require.NoError(t, err)
	assert.Equal(t, ports.LPOptimal, res.Status)
	assert.Equal(t, -9.0, res.Objective)
	assert.Equal(t, []float64{1, 1, 0}, res.Values)
	assert.Nil(t, res.Duals)
}

func TestParseGLPKInfeasible(t *testing.T) {
	parsed, err := parseGLPKSolution(strings.NewReader("s bas 1 2 n f 0\ni 1 b 0 0\nj 1 b 0 0\nj 2 b 0 0\n"))
	require.NoError(t, err)
	res, err := parsed.result(2, 1, true)
	require.NoError(t, err)
	assert.Equal(t, ports.LPInfeasible, res.Status)
}

func TestParseGLPKRejectsGarbage(t *testing.T) {
	_, err := parseGLPKSolution(strings.NewReader("j 1 b 0 0\n"))
	assert.Error(t, err)

	_, err = parseGLPKSolution(strings.NewReader("s ipt 1 1 f 0\n"))
	assert.Error(t, err)

	_, err = parseGLPKSolution(strings.NewReader(""))
	assert.Error(t, err)
}

func TestGlpsolMissingBinary(t *testing.T) {
	g := NewGlpsol("definitely-not-a-glpsol-binary")
	assert.False(t, g.Available())

	res, err := g.Solve(context.Background(), &ports.LPProblem{Objective: []float64{1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSolverUnavailable))
	assert.Equal(t, ports.LPUnavailable, res.Status)
}

func TestGlpsolSolvesWhenInstalled(t *testing.T) {
	g := NewGlpsol("")
	if !g.Available() {
		t.Skip("glpsol not on PATH")
	}

	p := &ports.LPProblem{
		Name:      "cover",
		Objective: []float64{1, 1},
		Rows: []ports.Constraint{
			row(ports.GE, 2, []int{0, 1}, []float64{1, 2}),
			row(ports.GE, 3, []int{0, 1}, []float64{3, 1}),
		},
		WantDuals: true,
	}
	res, err := g.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, ports.LPOptimal, res.Status)
	assert.InDelta(t, 1.4, res.Objective, 1e-6)
	assert.InDelta(t, 0.4, res.Duals[0], 1e-6)
}
