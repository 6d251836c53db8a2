//go:build postgres_integration

package repositories

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/platform/db"
	"cvrp-route-service/internal/ports"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresRunRepository(t *testing.T) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()

	conn, err := db.Open(ctx, url)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, InitSchema(ctx, conn))

	repo := NewPostgresRunRepository(conn)
	run := &ports.SolveRun{
		ID:           uuid.NewString(),
		InstanceName: "line",
		Algorithm:    "both",
		TotalCost:    8,
		Vehicles:     2,
		Routes:       []ports.RunRoute{{Customers: []int{2, 3}, Cost: 4, Load: 10}, {Customers: []int{4, 5}, Cost: 4, Load: 10}},
		StopReason:   "converged",
		Iterations:   3,
		Duration:     1500 * time.Millisecond,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.SaveRun(ctx, run))

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Routes, got.Routes)
	assert.Equal(t, run.Duration, got.Duration)
	assert.True(t, run.CreatedAt.Equal(got.CreatedAt))

	runs, err := repo.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	_, err = repo.GetRun(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, domain.ErrRunNotFound))
}
