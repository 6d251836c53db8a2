package services

import (
	"cvrp-route-service/internal/domain"
	"fmt"
	"math"
)

// GreedyConstructor builds routes with a greedy nearest-neighbor rule.
//
// The algorithm minimizes immediate travel distance at each step and does
// not attempt global route optimization. Ties go to the customer supplied
// first, which keeps every result deterministic.
type GreedyConstructor struct {
	in *domain.Instance
}

func NewGreedyConstructor(in *domain.Instance) *GreedyConstructor {
	return &GreedyConstructor{in: in}
}

// ConstructRoute starts at the depot and repeatedly moves to the nearest
// customer of remaining that still fits in the vehicle. It returns the
// visiting order and the travel cost including the return leg; an empty
// route costs 0.
func (g *GreedyConstructor) ConstructRoute(remaining []domain.Node) ([]int, float64) {
	used := make([]bool, len(remaining))
	return g.extend(0, 0, 0, nil, remaining, used)
}

// extend continues a route that currently ends at matrix index cur with the
// given load and cost so far, marking the customers it takes in used.
func (g *GreedyConstructor) extend(cur, load int, cost float64, ids []int, remaining []domain.Node, used []bool) ([]int, float64) {
	for {
		best := -1
		bestIdx := 0
		bestDist := math.Inf(1)
		for k, c := range remaining {
			if used[k] || load+c.Demand > g.in.Capacity() {
				continue
			}
			idx, ok := g.in.Index(c.ID)
			if !ok {
				continue
			}
			// Strict comparison keeps the first customer on equal distances.
			if d := g.in.Dist(cur, idx); d < bestDist {
				best, bestIdx, bestDist = k, idx, d
			}
		}
		if best < 0 {
			break
		}

		used[best] = true
		ids = append(ids, remaining[best].ID)
		load += remaining[best].Demand
		cost += bestDist
		cur = bestIdx
	}

	if len(ids) == 0 {
		return ids, 0
	}
	return ids, cost + g.in.Dist(cur, 0)
}

// SolveAll covers every customer by constructing routes over the customers
// not yet visited until none remain.
func (g *GreedyConstructor) SolveAll() (*domain.Solution, error) {
	if err := g.in.CheckDemands(); err != nil {
		return nil, fmt.Errorf("greedy solve: %w", err)
	}

	remaining := g.in.Customers()
	var routes []domain.Route
	for len(remaining) > 0 {
		ids, _ := g.ConstructRoute(remaining)
		if len(ids) == 0 {
			return nil, fmt.Errorf("greedy solve: no customer fits an empty vehicle: %w", domain.ErrInfeasibleDemand)
		}
		r, err := g.in.NewRoute(ids)
		if err != nil {
			return nil, fmt.Errorf("greedy solve: %w", err)
		}
		routes = append(routes, r)
		remaining = without(remaining, r)
	}
	return domain.NewSolution(routes), nil
}

// FarthestFirst covers every customer with routes that start at the
// remaining customer farthest from the depot and extend by nearest
// neighbour. It gives the column pool routes shaped differently from
// SolveAll's.
func (g *GreedyConstructor) FarthestFirst() ([]domain.Route, error) {
	if err := g.in.CheckDemands(); err != nil {
		return nil, fmt.Errorf("farthest first: %w", err)
	}

	remaining := g.in.Customers()
	var routes []domain.Route
	for len(remaining) > 0 {
		far, farIdx, farDist := -1, 0, -1.0
		for k, c := range remaining {
			idx, _ := g.in.Index(c.ID)
			if d := g.in.Dist(0, idx); d > farDist {
				far, farIdx, farDist = k, idx, d
			}
		}

		used := make([]bool, len(remaining))
		used[far] = true
		ids, _ := g.extend(farIdx, remaining[far].Demand, farDist, []int{remaining[far].ID}, remaining, used)

		r, err := g.in.NewRoute(ids)
		if err != nil {
			return nil, fmt.Errorf("farthest first: %w", err)
		}
		routes = append(routes, r)
		remaining = without(remaining, r)
	}
	return routes, nil
}

// ValidateSolution checks that routes partition the customer set within
// capacity. Each route is checked for repeated customers, then for load;
// coverage is checked last. The first violation found is returned.
func (g *GreedyConstructor) ValidateSolution(routes []domain.Route) (bool, *domain.Violation) {
	seen := make(map[int]bool, g.in.NumCustomers())
	for ri, r := range routes {
		load := 0
		for _, id := range r.Customers() {
			if !g.in.IsCustomer(id) {
				return false, &domain.Violation{Kind: domain.ViolationUnknownCustomer, CustomerID: id, RouteIndex: ri}
			}
			if seen[id] {
				return false, &domain.Violation{Kind: domain.ViolationDuplicateCustomer, CustomerID: id, RouteIndex: ri}
			}
			seen[id] = true
			load += g.in.Demand(id)
		}
		if load > g.in.Capacity() {
			return false, &domain.Violation{Kind: domain.ViolationCapacityExceeded, RouteIndex: ri, Load: load, Capacity: g.in.Capacity()}
		}
	}

	var missing []int
	for _, c := range g.in.Customers() {
		if !seen[c.ID] {
			missing = append(missing, c.ID)
		}
	}
	if len(missing) > 0 {
		return false, &domain.Violation{Kind: domain.ViolationMissingCustomer, Missing: missing}
	}
	return true, nil
}

func without(nodes []domain.Node, r domain.Route) []domain.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if !r.Visits(n.ID) {
			out = append(out, n)
		}
	}
	return out
}
