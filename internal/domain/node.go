package domain

import "math"

// Node is a depot or customer location with its demand.
// Nodes are plain values and are never mutated once an Instance holds them.
type Node struct {
	ID     int
	X      float64
	Y      float64
	Demand int
}

func (n Node) finite() bool {
	return !math.IsNaN(n.X) && !math.IsInf(n.X, 0) && !math.IsNaN(n.Y) && !math.IsInf(n.Y, 0)
}

// Distance returns the Euclidean distance between two nodes.
func Distance(a, b Node) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
