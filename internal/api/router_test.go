package api

import (
	"cvrp-route-service/internal/adapters/lpsolver"
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/repositories"
	"cvrp-route-service/internal/api/dto"
	"cvrp-route-service/internal/ports"
	"cvrp-route-service/internal/services"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineJSON = `{
	"name": "line",
	"capacity": 10,
	"depot": {"id": 1, "x": 0, "y": 0},
	"customers": [
		{"id": 2, "x": 1, "y": 0, "demand": 5},
		{"id": 3, "x": 2, "y": 0, "demand": 5},
		{"id": 4, "x": -1, "y": 0, "demand": 5},
		{"id": 5, "x": -2, "y": 0, "demand": 5}
	]
}`

const lineTSPLIB = "NAME : line-tsplib\n" +
	"COMMENT : (No of trucks: 2, Optimal value: 8)\n" +
	"TYPE : CVRP\n" +
	"DIMENSION : 5\n" +
	"EDGE_WEIGHT_TYPE : EUC_2D\n" +
	"CAPACITY : 10\n" +
	"NODE_COORD_SECTION\n1 0 0\n2 1 0\n3 2 0\n4 -1 0\n5 -2 0\n" +
	"DEMAND_SECTION\n1 0\n2 5\n3 5\n4 5\n5 5\n" +
	"DEPOT_SECTION\n1\n-1\nEOF\n"

func newTestRouter(t *testing.T) (http.Handler, *repositories.MemoryRunRepository) {
	t.Helper()
	cfg := services.DefaultConfig()
	lp := lpsolver.NewSimplex()
	cfg.MasterSolvers = []ports.LPSolver{lp}
	cfg.IntegerSolvers = []ports.LPSolver{lpsolver.NewBranchBound()}
	cfg.PricingSolver = lp

	repo := repositories.NewMemoryRunRepository()
	planner := services.NewPlanner(cfg, services.WithRunRepository(repo))
	h := NewRouter(Deps{
		Planner:          planner,
		Runs:             repo,
		Solvers:          cfg.MasterSolvers,
		Catalog:          optimal.Default(),
		DefaultAlgorithm: services.AlgorithmBoth,
		MaxBodyBytes:     1 << 20,
	})
	return h, repo
}

func do(t *testing.T, h http.Handler, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSolveJSON(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/solve", "application/json", lineJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var res dto.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.InDelta(t, 8.0, res.TotalCost, 1e-6)
	assert.Equal(t, 2, res.Vehicles)
	assert.True(t, res.Valid)
	assert.Equal(t, "both", res.Algorithm)
	require.NotNil(t, res.GreedyCost)
	require.NotNil(t, res.Report)
	for _, r := range res.Routes {
		assert.Equal(t, 10, r.Load)
		assert.True(t, strings.HasPrefix(r.Path, "0 -> "))
	}
}

func TestSolveTSPLIBReportsGap(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/solve?algorithm=greedy", "text/plain; charset=utf-8", lineTSPLIB)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res dto.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "greedy", res.Algorithm)
	assert.Nil(t, res.Report)
	require.NotNil(t, res.OptimalCost)
	assert.Equal(t, 8.0, *res.OptimalCost)
	require.NotNil(t, res.GapPercent)
	assert.InDelta(t, 0.0, *res.GapPercent, 1e-6)
}

func TestSolveErrors(t *testing.T) {
	h, _ := newTestRouter(t)

	cases := []struct {
		name   string
		target string
		ctype  string
		body   string
		status int
	}{
		{"malformed json", "/solve", "application/json", "{", http.StatusBadRequest},
		{"unknown field", "/solve", "application/json", `{"trucks": 3}`, http.StatusBadRequest},
		{"invalid instance", "/solve", "application/json", `{"capacity": 0, "depot": {"id": 1}}`, http.StatusBadRequest},
		{"infeasible demand", "/solve", "application/json",
			`{"capacity": 10, "depot": {"id": 1}, "customers": [{"id": 2, "x": 1, "demand": 11}]}`,
			http.StatusUnprocessableEntity},
		{"overflowing coordinates", "/solve", "application/json",
			`{"capacity": 10, "depot": {"id": 1, "x": -1e308}, "customers": [{"id": 2, "x": 1e308, "demand": 1}]}`,
			http.StatusBadRequest},
		{"infinite tsplib coordinate", "/solve?format=tsplib", "", "NODE_COORD_SECTION\n1 0 0\n2 inf 0\nEOF\n", http.StatusBadRequest},
		{"bad algorithm", "/solve?algorithm=tabu", "application/json", lineJSON, http.StatusBadRequest},
		{"bad tsplib", "/solve?format=tsplib", "", "NODE_COORD_SECTION\n1 x 0\nEOF\n", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tc.target, tc.ctype, tc.body)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRunsEndpoints(t *testing.T) {
	h, repo := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/solve", "application/json", lineJSON)
	require.Equal(t, http.StatusOK, rec.Code)
	var solved dto.SolveResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &solved))

	stored, err := repo.GetRun(t.Context(), solved.RunID)
	require.NoError(t, err)
	assert.Equal(t, "line", stored.InstanceName)

	rec = do(t, h, http.MethodGet, "/runs", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list dto.ListRunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Runs, 1)
	assert.Equal(t, solved.RunID, list.Runs[0].ID)

	rec = do(t, h, http.MethodGet, "/runs/"+solved.RunID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs/does-not-exist", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/runs?limit=0", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gonum-simplex")

	rec = do(t, h, http.MethodPost, "/health", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}
