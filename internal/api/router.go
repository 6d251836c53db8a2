package api

import (
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/api/handlers"
	"cvrp-route-service/internal/metrics"
	"cvrp-route-service/internal/ports"
	"cvrp-route-service/internal/services"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Planner          *services.Planner
	Runs             ports.RunRepository
	Solvers          []ports.LPSolver
	Catalog          *optimal.Catalog
	DefaultAlgorithm services.Algorithm
	MaxBodyBytes     int64
}

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(d Deps) http.Handler {
	metrics.RegisterDefault()
	mux := http.NewServeMux()

	healthHandler := &handlers.HealthHandler{Solvers: d.Solvers}
	runHandler := &handlers.RunHandler{Repo: d.Runs}
	solveHandler := &handlers.SolveHandler{
		Planner:          d.Planner,
		Catalog:          d.Catalog,
		DefaultAlgorithm: d.DefaultAlgorithm,
		MaxBodyBytes:     d.MaxBodyBytes,
	}

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("POST /solve", solveHandler.Solve)
	mux.HandleFunc("GET /runs", runHandler.List)
	mux.HandleFunc("GET /runs/{id}", runHandler.Get)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return loggingMiddleware(mux)
}
