package dto

type NodeRequest struct {
	ID     int     `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Demand int     `json:"demand"`
}

// SolveRequest is the JSON form of POST /solve. TSPLIB bodies are accepted
// as text/plain instead.
type SolveRequest struct {
	Name      string        `json:"name"`
	Capacity  int           `json:"capacity"`
	Depot     NodeRequest   `json:"depot"`
	Customers []NodeRequest `json:"customers"`
	Algorithm string        `json:"algorithm"`
}

type RouteResponse struct {
	Vehicle   int     `json:"vehicle"`
	Customers []int   `json:"customers"`
	Cost      float64 `json:"cost"`
	Load      int     `json:"load"`
	Path      string  `json:"path"`
}

type ReportResponse struct {
	Outcome          string  `json:"outcome"`
	StopReason       string  `json:"stop_reason"`
	Iterations       int     `json:"iterations"`
	InitialColumns   int     `json:"initial_columns"`
	PoolSize         int     `json:"pool_size"`
	MasterObjective  float64 `json:"master_objective"`
	BaselineCost     float64 `json:"baseline_cost"`
	MasterStrategy   string  `json:"master_strategy"`
	PricingStrategy  string  `json:"pricing_strategy"`
	FinalizeStrategy string  `json:"finalize_strategy"`
	Degradations     int     `json:"degradations"`
	DurationMs       int64   `json:"duration_ms"`
}

type SolveResponse struct {
	RunID     string          `json:"run_id"`
	Instance  string          `json:"instance"`
	Algorithm string          `json:"algorithm"`
	TotalCost float64         `json:"total_cost"`
	Vehicles  int             `json:"vehicles"`
	Routes    []RouteResponse `json:"routes"`
	Valid     bool            `json:"valid"`
	Violation string          `json:"violation,omitempty"`
	Cached    bool            `json:"cached"`

	GreedyCost           *float64        `json:"greedy_cost,omitempty"`
	ColumnGenerationCost *float64        `json:"column_generation_cost,omitempty"`
	Report               *ReportResponse `json:"report,omitempty"`

	OptimalCost *float64 `json:"optimal_cost,omitempty"`
	GapPercent  *float64 `json:"gap_percent,omitempty"`
	DurationMs  int64    `json:"duration_ms"`
}
