package handlers

import (
	"cvrp-route-service/internal/ports"
	"net/http"
)

// HealthHandler is a liveness check that also lists the configured LP
// backends and, for those behind a circuit breaker, the breaker state.
type HealthHandler struct {
	Solvers []ports.LPSolver
}

type breakerStater interface {
	State() string
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	solvers := make(map[string]string, len(h.Solvers))
	for _, s := range h.Solvers {
		state := "ready"
		if b, ok := s.(breakerStater); ok {
			state = b.State()
		}
		solvers[s.Name()] = state
	}

	res := map[string]any{"status": "ok", "solvers": solvers}
	writeJSON(w, r, http.StatusOK, res)
}
