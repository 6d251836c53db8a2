package ports

import (
	"context"
	"time"
)

// RunRoute is one stored vehicle route.
type RunRoute struct {
	Customers []int   `json:"customers"`
	Cost      float64 `json:"cost"`
	Load      int     `json:"load"`
}

// SolveRun is the persisted record of one solve request.
type SolveRun struct {
	ID           string
	InstanceName string
	Algorithm    string
	TotalCost    float64
	Vehicles     int
	Routes       []RunRoute
	StopReason   string
	Iterations   int
	Duration     time.Duration
	CreatedAt    time.Time
}

// Port: a boundary for storing and retrieving solve runs.
type RunRepository interface {
	SaveRun(ctx context.Context, run *SolveRun) error
	// Return domain.ErrRunNotFound for unknown ids.
	GetRun(ctx context.Context, id string) (*SolveRun, error)
	// Return the most recent runs first, at most limit.
	ListRuns(ctx context.Context, limit int) ([]*SolveRun, error)
}
