package repositories

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestMemoryRunRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()

	for i := 1; i <= 3; i++ {
		err := repo.SaveRun(ctx, &ports.SolveRun{
			ID:        fmt.Sprintf("run-%d", i),
			TotalCost: float64(i),
			Routes:    []ports.RunRoute{{Customers: []int{2, 3}, Cost: 4, Load: 10}},
			Duration:  time.Duration(i) * time.Second,
		})
		if err != nil {
			t.Fatalf("save run %d: %v", i, err)
		}
	}

	got, err := repo.GetRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TotalCost != 2 {
		t.Fatalf("total cost = %v, want 2", got.TotalCost)
	}

	runs, err := repo.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Fatalf("expected newest first, got %q, %q", runs[0].ID, runs[1].ID)
	}

	_, err = repo.GetRun(ctx, "missing")
	if !errors.Is(err, domain.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}
