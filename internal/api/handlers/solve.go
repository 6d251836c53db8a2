package handlers

import (
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/api/dto"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/services"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
)

type SolveHandler struct {
	Planner *services.Planner
	// Catalog supplies best known costs for the gap; optional.
	Catalog          *optimal.Catalog
	DefaultAlgorithm services.Algorithm
	MaxBodyBytes     int64
}

// Solve accepts a JSON instance, or a TSPLIB file sent as text/plain (or
// with ?format=tsplib), and runs the requested algorithm. The algorithm
// query parameter overrides the body's.
func (h *SolveHandler) Solve(w http.ResponseWriter, r *http.Request) {
	var body io.Reader = r.Body
	if h.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}
	defer r.Body.Close()

	var (
		in      *domain.Instance
		algName string
		comment string
		err     error
	)
	if isTSPLIB(r) {
		var f *tsplib.File
		f, err = tsplib.Parse(body)
		if err == nil {
			in, err = f.Instance()
			comment = f.Comment
		}
	} else {
		var req dto.SolveRequest
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			if tooLarge(err) {
				writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
			return
		}
		in, err = instanceFromRequest(req)
		algName = req.Algorithm
	}
	if err != nil {
		if tooLarge(err) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeServiceError(w, r, "solve", err)
		return
	}

	if q := strings.TrimSpace(r.URL.Query().Get("algorithm")); q != "" {
		algName = q
	}
	alg := h.DefaultAlgorithm
	if alg == "" {
		alg = services.AlgorithmBoth
	}
	if algName != "" {
		if alg, err = services.ParseAlgorithm(algName); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	res, err := h.Planner.Plan(r.Context(), in, alg)
	if err != nil {
		writeServiceError(w, r, "solve", err)
		return
	}

	writeJSON(w, r, http.StatusOK, h.toSolveResponse(in, comment, res))
}

func isTSPLIB(r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("format"), "tsplib") {
		return true
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "text/plain"
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

func instanceFromRequest(req dto.SolveRequest) (*domain.Instance, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "request"
	}
	depot := domain.Node{ID: req.Depot.ID, X: req.Depot.X, Y: req.Depot.Y, Demand: req.Depot.Demand}
	customers := make([]domain.Node, 0, len(req.Customers))
	for _, c := range req.Customers {
		customers = append(customers, domain.Node{ID: c.ID, X: c.X, Y: c.Y, Demand: c.Demand})
	}
	return domain.NewInstance(name, depot, customers, req.Capacity)
}

func (h *SolveHandler) toSolveResponse(in *domain.Instance, comment string, res *services.PlanResult) dto.SolveResponse {
	sol := res.Solution
	out := dto.SolveResponse{
		RunID:      res.Run.ID,
		Instance:   in.Name(),
		Algorithm:  res.Run.Algorithm,
		TotalCost:  sol.TotalCost,
		Vehicles:   sol.Vehicles(),
		Routes:     make([]dto.RouteResponse, 0, len(sol.Routes)),
		Valid:      res.Valid(),
		Cached:     res.Cached,
		DurationMs: res.Run.Duration.Milliseconds(),
	}
	if res.Violation != nil {
		out.Violation = res.Violation.Error()
	}
	for i, rt := range sol.Routes {
		out.Routes = append(out.Routes, dto.RouteResponse{
			Vehicle:   i + 1,
			Customers: rt.Customers(),
			Cost:      rt.Cost(),
			Load:      rt.Load(),
			Path:      rt.String(),
		})
	}
	if res.Greedy != nil {
		out.GreedyCost = &res.Greedy.TotalCost
	}
	if res.ColumnGeneration != nil {
		out.ColumnGenerationCost = &res.ColumnGeneration.TotalCost
	}
	if rep := res.Report; rep != nil {
		out.Report = &dto.ReportResponse{
			Outcome:          string(rep.Outcome),
			StopReason:       string(rep.StopReason),
			Iterations:       rep.Iterations,
			InitialColumns:   rep.InitialColumns,
			PoolSize:         rep.PoolSize,
			MasterObjective:  rep.MasterObjective,
			BaselineCost:     rep.BaselineCost,
			MasterStrategy:   rep.MasterStrategy,
			PricingStrategy:  rep.PricingStrategy,
			FinalizeStrategy: rep.FinalizeStrategy,
			Degradations:     rep.Degradations,
			DurationMs:       rep.Duration.Milliseconds(),
		}
	}

	opt, ok := 0.0, false
	if h.Catalog != nil {
		if s, found := h.Catalog.Lookup(in.Name()); found {
			opt, ok = s.Cost, true
		}
	}
	if !ok {
		opt, ok = tsplib.OptimalValue(comment)
	}
	if ok {
		gap := optimal.Gap(sol.TotalCost, opt)
		out.OptimalCost = &opt
		out.GapPercent = &gap
	}
	return out
}
