package services

import (
	"cvrp-route-service/internal/adapters/lpsolver"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	idA = 2
	idB = 3
	idC = 4
	idD = 5
)

// lineInstance places A, B east of the depot and C, D west of it, all with
// demand 5 and capacity 10. The optimum is {A,B} + {C,D} at cost 8.
func lineInstance(t *testing.T) *domain.Instance {
	t.Helper()
	in, err := domain.NewInstance("line", domain.Node{ID: 1}, []domain.Node{
		{ID: idA, X: 1, Demand: 5},
		{ID: idB, X: 2, Demand: 5},
		{ID: idC, X: -1, Demand: 5},
		{ID: idD, X: -2, Demand: 5},
	}, 10)
	require.NoError(t, err)
	return in
}

// squareInstance puts A, B on the x axis and C, D on the y axis, so from A
// the nearest candidates are B at 1 and C at sqrt(2).
func squareInstance(t *testing.T) *domain.Instance {
	t.Helper()
	in, err := domain.NewInstance("square", domain.Node{ID: 1}, []domain.Node{
		{ID: idA, X: 1, Demand: 5},
		{ID: idB, X: 2, Demand: 5},
		{ID: idC, Y: 1, Demand: 5},
		{ID: idD, Y: 2, Demand: 5},
	}, 10)
	require.NoError(t, err)
	return in
}

func randomInstance(t *testing.T, n int, seed uint64) *domain.Instance {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b9))
	customers := make([]domain.Node, n)
	for i := range customers {
		customers[i] = domain.Node{
			ID:     i + 2,
			X:      float64(rng.IntN(100)),
			Y:      float64(rng.IntN(100)),
			Demand: 1 + rng.IntN(9),
		}
	}
	in, err := domain.NewInstance("random", domain.Node{ID: 1, X: 50, Y: 50}, customers, 20)
	require.NoError(t, err)
	return in
}

func mustRoute(t *testing.T, in *domain.Instance, ids ...int) domain.Route {
	t.Helper()
	r, err := in.NewRoute(ids)
	require.NoError(t, err)
	return r
}

func gonumConfig() Config {
	cfg := DefaultConfig()
	cfg.MasterSolvers = []ports.LPSolver{lpsolver.NewSimplex()}
	cfg.IntegerSolvers = []ports.LPSolver{lpsolver.NewBranchBound()}
	cfg.PricingSolver = lpsolver.NewSimplex()
	return cfg
}
