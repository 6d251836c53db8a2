package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Route is one vehicle trip: an ordered customer sequence with the depot
// implicit at both ends. It is also a column of the set-partitioning model.
//
// Cost and load are computed once from the instance when the route is built
// and the route is never mutated afterwards.
type Route struct {
	customers []int
	cost      float64
	load      int
	key       string
}

// NewRoute builds a route over customer ids, computing its travel cost
// (depot -> customers -> depot) and load from the instance.
func (in *Instance) NewRoute(ids []int) (Route, error) {
	seen := make(map[int]struct{}, len(ids))
	load := 0
	for _, id := range ids {
		if !in.IsCustomer(id) {
			return Route{}, fmt.Errorf("new route: unknown customer %d", id)
		}
		if _, dup := seen[id]; dup {
			return Route{}, fmt.Errorf("new route: customer %d visited twice", id)
		}
		seen[id] = struct{}{}
		load += in.Demand(id)
	}

	return Route{
		customers: append([]int(nil), ids...),
		cost:      in.RouteCost(ids),
		load:      load,
		key:       customerSetKey(ids),
	}, nil
}

// RouteCost recomputes the travel cost of a customer sequence directly from
// the distance matrix. Unknown ids are skipped.
func (in *Instance) RouteCost(ids []int) float64 {
	if len(ids) == 0 {
		return 0
	}
	cost := 0.0
	prev := 0
	for _, id := range ids {
		i, ok := in.index[id]
		if !ok {
			continue
		}
		cost += in.dist[prev][i]
		prev = i
	}
	return cost + in.dist[prev][0]
}

// Customers returns a copy of the visiting order.
func (r Route) Customers() []int { return append([]int(nil), r.customers...) }

func (r Route) Cost() float64 { return r.cost }
func (r Route) Load() int { return r.load }
func (r Route) Len() int { return len(r.customers) }
func (r Route) IsEmpty() bool { return len(r.customers) == 0 }

// Key identifies the route's customer set, independent of visiting order and
// cost. Two routes with the same key are duplicates.
func (r Route) Key() string { return r.key }

// Visits reports whether the route serves customer id.
func (r Route) Visits(id int) bool { return slices.Contains(r.customers, id) }

// Efficiency is cost per served customer.
func (r Route) Efficiency() float64 {
	if len(r.customers) == 0 {
		return 0
	}
	return r.cost / float64(len(r.customers))
}

// String renders the route as "0 -> a -> b -> 0".
func (r Route) String() string {
	var b strings.Builder
	b.WriteString("0")
	for _, id := range r.customers {
		b.WriteString(" -> ")
		b.WriteString(strconv.Itoa(id))
	}
	b.WriteString(" -> 0")
	return b.String()
}

func customerSetKey(ids []int) string {
	sorted := append([]int(nil), ids...)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
