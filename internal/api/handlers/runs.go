package handlers

import (
	"cvrp-route-service/internal/api/dto"
	"cvrp-route-service/internal/ports"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultRunLimit = 50
	maxRunLimit     = 500
)

// RunHandler exposes read-only access to stored solve runs.
type RunHandler struct {
	Repo ports.RunRepository
}

func (h *RunHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunLimit {
			writeError(w, r, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	runs, err := h.Repo.ListRuns(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, "list runs", err)
		return
	}

	res := dto.ListRunsResponse{Runs: make([]dto.RunResponse, 0, len(runs))}
	for _, run := range runs {
		res.Runs = append(res.Runs, toRunResponse(run))
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (h *RunHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "id is required")
		return
	}

	run, err := h.Repo.GetRun(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "get run", err)
		return
	}
	writeJSON(w, r, http.StatusOK, toRunResponse(run))
}

func toRunResponse(run *ports.SolveRun) dto.RunResponse {
	res := dto.RunResponse{
		ID:           run.ID,
		InstanceName: run.InstanceName,
		Algorithm:    run.Algorithm,
		TotalCost:    run.TotalCost,
		Vehicles:     run.Vehicles,
		Routes:       make([]dto.RunRouteResponse, 0, len(run.Routes)),
		StopReason:   run.StopReason,
		Iterations:   run.Iterations,
		DurationMs:   run.Duration.Milliseconds(),
		CreatedAt:    run.CreatedAt,
	}
	for _, rr := range run.Routes {
		res.Routes = append(res.Routes, dto.RunRouteResponse{Customers: rr.Customers, Cost: rr.Cost, Load: rr.Load})
	}
	return res
}
