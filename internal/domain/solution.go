package domain

import "fmt"

// Solution is the engine output: routes that partition the customer set, each
// within capacity, and their total travel cost.
type Solution struct {
	Routes    []Route
	TotalCost float64
}

// NewSolution sums the cached route costs.
func NewSolution(routes []Route) *Solution {
	total := 0.0
	for _, r := range routes {
		total += r.Cost()
	}
	return &Solution{Routes: routes, TotalCost: total}
}

// Vehicles is the number of non-empty routes.
func (s *Solution) Vehicles() int {
	n := 0
	for _, r := range s.Routes {
		if !r.IsEmpty() {
			n++
		}
	}
	return n
}

// ViolationKind classifies why a route set is not a valid solution.
type ViolationKind string

const (
	ViolationDuplicateCustomer ViolationKind = "duplicate_customer"
	ViolationCapacityExceeded  ViolationKind = "capacity_exceeded"
	ViolationMissingCustomer   ViolationKind = "missing_customer"
	ViolationUnknownCustomer   ViolationKind = "unknown_customer"
)

// Violation is the first problem found while validating a route set.
type Violation struct {
	Kind       ViolationKind
	CustomerID int
	RouteIndex int
	Load       int
	Capacity   int
	Missing    []int
}

func (v *Violation) Error() string {
	switch v.Kind {
	case ViolationDuplicateCustomer:
		return fmt.Sprintf("customer %d visited more than once (route %d)", v.CustomerID, v.RouteIndex)
	case ViolationCapacityExceeded:
		return fmt.Sprintf("route %d load %d exceeds capacity %d", v.RouteIndex, v.Load, v.Capacity)
	case ViolationMissingCustomer:
		return fmt.Sprintf("customers not visited: %v", v.Missing)
	case ViolationUnknownCustomer:
		return fmt.Sprintf("route %d visits unknown customer %d", v.RouteIndex, v.CustomerID)
	}
	return string(v.Kind)
}
