package repositories

import (
	"context"
	"cvrp-route-service/internal/domain"
	"cvrp-route-service/internal/ports"
	"fmt"
	"slices"
	"sync"
)

// In-memory implementation of the RunRepository port, used when no
// database is configured. Runs are lost on restart.
type MemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[string]*ports.SolveRun
	// order holds ids by insertion.
	order []string
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{runs: make(map[string]*ports.SolveRun)}
}

func (m *MemoryRunRepository) SaveRun(_ context.Context, run *ports.SolveRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.runs[run.ID]; !ok {
		m.order = append(m.order, run.ID)
	}
	cp := *run
	cp.Routes = slices.Clone(run.Routes)
	m.runs[run.ID] = &cp
	return nil
}

func (m *MemoryRunRepository) GetRun(_ context.Context, id string) (*ports.SolveRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[id]
	if !ok {
		return nil, fmt.Errorf("get run %s: %w", id, domain.ErrRunNotFound)
	}
	cp := *run
	return &cp, nil
}

func (m *MemoryRunRepository) ListRuns(_ context.Context, limit int) ([]*ports.SolveRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	out := make([]*ports.SolveRun, 0, min(limit, len(m.order)))
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.runs[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}
