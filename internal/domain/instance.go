package domain

import (
	"fmt"
	"math"
)

// Instance is a capacitated vehicle routing problem with a single depot.
//
// The distance matrix is computed once in NewInstance and never written again,
// so an Instance is safe for concurrent reads. Matrix index 0 is the depot and
// indices 1..n follow the customer order supplied by the caller.
type Instance struct {
	name      string
	depot     Node
	customers []Node
	capacity  int

	dist  [][]float64
	index map[int]int
}

// NewInstance validates the input and precomputes the distance matrix.
//
// A customer whose demand exceeds capacity is accepted here; the solvers
// report it as ErrInfeasibleDemand because that is a property of the problem,
// not malformed input.
func NewInstance(name string, depot Node, customers []Node, capacity int) (*Instance, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("new instance %q: capacity must be positive, got %d: %w", name, capacity, ErrInvalidInstance)
	}
	if depot.Demand != 0 {
		return nil, fmt.Errorf("new instance %q: depot %d has demand %d: %w", name, depot.ID, depot.Demand, ErrInvalidInstance)
	}

	nodes := make([]Node, 0, len(customers)+1)
	nodes = append(nodes, depot)
	nodes = append(nodes, customers...)

	index := make(map[int]int, len(nodes))
	for i, n := range nodes {
		if _, dup := index[n.ID]; dup {
			return nil, fmt.Errorf("new instance %q: duplicate node id %d: %w", name, n.ID, ErrInvalidInstance)
		}
		if !n.finite() {
			return nil, fmt.Errorf("new instance %q: node %d has non-finite coordinates (%v, %v): %w", name, n.ID, n.X, n.Y, ErrInvalidInstance)
		}
		if n.Demand < 0 {
			return nil, fmt.Errorf("new instance %q: node %d has negative demand %d: %w", name, n.ID, n.Demand, ErrInvalidInstance)
		}
		index[n.ID] = i
	}

	in := &Instance{
		name:      name,
		depot:     depot,
		customers: append([]Node(nil), customers...),
		capacity:  capacity,
		index:     index,
	}
	in.dist = buildMatrix(nodes)
	for i, row := range in.dist {
		for j, d := range row {
			if math.IsInf(d, 0) {
				return nil, fmt.Errorf("new instance %q: distance between nodes %d and %d overflows: %w", name, nodes[i].ID, nodes[j].ID, ErrInvalidInstance)
			}
		}
	}
	return in, nil
}

func buildMatrix(nodes []Node) [][]float64 {
	n := len(nodes)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := Distance(nodes[i], nodes[j])
			m[i][j] = d
			m[j][i] = d
		}
	}
	return m
}

func (in *Instance) Name() string { return in.name }
func (in *Instance) Capacity() int { return in.capacity }
func (in *Instance) Depot() Node { return in.depot }

// Customers returns the customers in supplied order, depot excluded.
func (in *Instance) Customers() []Node { return append([]Node(nil), in.customers...) }

// NumCustomers is len(Customers()) without the copy.
func (in *Instance) NumCustomers() int { return len(in.customers) }

// Customer returns the customer at matrix index i (1-based; 0 is the depot).
func (in *Instance) Customer(i int) Node { return in.customers[i-1] }

// DistanceMatrix returns the precomputed matrix. Callers must not modify it.
func (in *Instance) DistanceMatrix() [][]float64 { return in.dist }

// Dist is the distance between matrix indices i and j.
func (in *Instance) Dist(i, j int) float64 { return in.dist[i][j] }

// Index maps a node id to its matrix index.
func (in *Instance) Index(id int) (int, bool) {
	i, ok := in.index[id]
	return i, ok
}

// IsCustomer reports whether id names a customer of this instance.
func (in *Instance) IsCustomer(id int) bool {
	i, ok := in.index[id]
	return ok && i > 0
}

// Demand returns the demand of a node by id (0 for unknown ids).
func (in *Instance) Demand(id int) int {
	i, ok := in.index[id]
	if !ok || i == 0 {
		return 0
	}
	return in.customers[i-1].Demand
}

// CheckDemands returns ErrInfeasibleDemand for the first customer that cannot
// fit in an empty vehicle.
func (in *Instance) CheckDemands() error {
	for _, c := range in.customers {
		if c.Demand > in.capacity {
			return fmt.Errorf("customer %d demand %d exceeds capacity %d: %w", c.ID, c.Demand, in.capacity, ErrInfeasibleDemand)
		}
	}
	return nil
}

// TotalDemand is the sum of all customer demands.
func (in *Instance) TotalDemand() int {
	total := 0
	for _, c := range in.customers {
		total += c.Demand
	}
	return total
}
