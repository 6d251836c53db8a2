package dto

import "time"

type RunRouteResponse struct {
	Customers []int   `json:"customers"`
	Cost      float64 `json:"cost"`
	Load      int     `json:"load"`
}

type RunResponse struct {
	ID           string             `json:"id"`
	InstanceName string             `json:"instance_name"`
	Algorithm    string             `json:"algorithm"`
	TotalCost    float64            `json:"total_cost"`
	Vehicles     int                `json:"vehicles"`
	Routes       []RunRouteResponse `json:"routes"`
	StopReason   string             `json:"stop_reason,omitempty"`
	Iterations   int                `json:"iterations"`
	DurationMs   int64              `json:"duration_ms"`
	CreatedAt    time.Time          `json:"created_at"`
}

type ListRunsResponse struct {
	Runs []RunResponse `json:"runs"`
}
