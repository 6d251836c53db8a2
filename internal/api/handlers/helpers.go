package handlers

import (
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/services"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "encode failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps input errors to 400, fatal engine conditions to 422
// and anything else to 500. Only client-caused errors echo their message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInstance), errors.Is(err, tsplib.ErrFormat):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case services.IsFatal(err):
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrRunNotFound):
		writeError(w, r, http.StatusNotFound, "run not found")
	default:
		slog.ErrorContext(r.Context(), op+" failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
