package services

import "cvrp-route-service/internal/domain"

// ColumnPool is the set of candidate routes of a column generation run.
// Routes are unique by customer set, the pool only grows, and once frozen it
// accepts nothing more.
type ColumnPool struct {
	routes []domain.Route
	keys   map[string]int
	frozen bool
}

func NewColumnPool() *ColumnPool {
	return &ColumnPool{keys: make(map[string]int)}
}

// Add appends r unless the pool is frozen, r is empty, or a route with the
// same customer set is already present. It reports whether r was added.
func (p *ColumnPool) Add(r domain.Route) bool {
	if p.frozen || r.IsEmpty() {
		return false
	}
	if _, dup := p.keys[r.Key()]; dup {
		return false
	}
	p.keys[r.Key()] = len(p.routes)
	p.routes = append(p.routes, r)
	return true
}

// Contains reports whether a route with r's customer set is in the pool.
func (p *ColumnPool) Contains(r domain.Route) bool {
	_, ok := p.keys[r.Key()]
	return ok
}

func (p *ColumnPool) Len() int { return len(p.routes) }

// Routes returns the routes in insertion order.
func (p *ColumnPool) Routes() []domain.Route { return append([]domain.Route(nil), p.routes...) }

func (p *ColumnPool) Freeze()      { p.frozen = true }
func (p *ColumnPool) Frozen() bool { return p.frozen }

// Uncovered lists the customers of in that no pooled route visits, in
// instance order.
func (p *ColumnPool) Uncovered(in *domain.Instance) []int {
	covered := make(map[int]bool, in.NumCustomers())
	for _, r := range p.routes {
		for _, id := range r.Customers() {
			covered[id] = true
		}
	}
	var missing []int
	for _, c := range in.Customers() {
		if !covered[c.ID] {
			missing = append(missing, c.ID)
		}
	}
	return missing
}
