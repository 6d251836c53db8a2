// Package tsplib reads capacitated VRP instances in the TSPLIB95 text format.
package tsplib

import (
	"bufio"
	"cvrp-route-service/internal/domain"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var ErrFormat = errors.New("tsplib: malformed input")

// File is a parsed .vrp file. Nodes are in NODE_COORD_SECTION order and
// include the depot.
type File struct {
	Name           string
	Comment        string
	Type           string
	Dimension      int
	EdgeWeightType string
	Capacity       int
	Nodes          []domain.Node
	DepotID        int
}

type section int

const (
	sectionHeader section = iota
	sectionCoords
	sectionDemands
	sectionDepots
)

// Parse reads a TSPLIB95 CVRP file. Only 2D Euclidean coordinates are
// supported. Nodes missing from DEMAND_SECTION get demand 0; the depot
// defaults to node 1 when DEPOT_SECTION is absent.
func Parse(r io.Reader) (*File, error) {
	f := &File{DepotID: 1}
	var (
		sec     = sectionHeader
		coords  = map[int]int{}
		demands = map[int]int{}
		depots  []int
		lineNo  int
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "EOF" {
			break
		}

		switch line {
		case "NODE_COORD_SECTION":
			sec = sectionCoords
			continue
		case "DEMAND_SECTION":
			sec = sectionDemands
			continue
		case "DEPOT_SECTION":
			sec = sectionDepots
			continue
		}

		fields := strings.Fields(line)
		switch sec {
		case sectionCoords:
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: coordinate needs id x y: %w", lineNo, ErrFormat)
			}
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: node id %q: %w", lineNo, fields[0], ErrFormat)
			}
			x, errX := strconv.ParseFloat(fields[1], 64)
			y, errY := strconv.ParseFloat(fields[2], 64)
			if errX != nil || errY != nil || math.IsNaN(x) || math.IsInf(x, 0) || math.IsNaN(y) || math.IsInf(y, 0) {
				return nil, fmt.Errorf("line %d: coordinates of node %d: %w", lineNo, id, ErrFormat)
			}
			if _, dup := coords[id]; dup {
				return nil, fmt.Errorf("line %d: duplicate node %d: %w", lineNo, id, ErrFormat)
			}
			coords[id] = len(f.Nodes)
			f.Nodes = append(f.Nodes, domain.Node{ID: id, X: x, Y: y})

		case sectionDemands:
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: demand needs id value: %w", lineNo, ErrFormat)
			}
			id, errID := strconv.Atoi(fields[0])
			d, errD := strconv.Atoi(fields[1])
			if errID != nil || errD != nil {
				return nil, fmt.Errorf("line %d: demand %q: %w", lineNo, line, ErrFormat)
			}
			demands[id] = d

		case sectionDepots:
			id, err := strconv.Atoi(fields[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: depot id %q: %w", lineNo, fields[0], ErrFormat)
			}
			if id == -1 {
				sec = sectionHeader
				continue
			}
			depots = append(depots, id)

		default:
			if err := f.header(line); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("tsplib: read: %w", err)
	}

	for id, d := range demands {
		k, ok := coords[id]
		if !ok {
			return nil, fmt.Errorf("demand for unknown node %d: %w", id, ErrFormat)
		}
		f.Nodes[k].Demand = d
	}
	if len(depots) > 0 {
		f.DepotID = depots[0]
	}
	if _, ok := coords[f.DepotID]; !ok && len(f.Nodes) > 0 {
		return nil, fmt.Errorf("depot %d has no coordinates: %w", f.DepotID, ErrFormat)
	}
	if f.Dimension > 0 && f.Dimension != len(f.Nodes) {
		return nil, fmt.Errorf("DIMENSION %d but %d nodes: %w", f.Dimension, len(f.Nodes), ErrFormat)
	}
	return f, nil
}

func (f *File) header(line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		return fmt.Errorf("unrecognized line %q: %w", line, ErrFormat)
	}
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	switch key {
	case "NAME":
		f.Name = value
	case "COMMENT":
		f.Comment = value
	case "TYPE":
		f.Type = value
	case "DIMENSION":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("DIMENSION %q: %w", value, ErrFormat)
		}
		f.Dimension = n
	case "EDGE_WEIGHT_TYPE":
		if value != "EUC_2D" {
			return fmt.Errorf("EDGE_WEIGHT_TYPE %q not supported: %w", value, ErrFormat)
		}
		f.EdgeWeightType = value
	case "CAPACITY":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("CAPACITY %q: %w", value, ErrFormat)
		}
		f.Capacity = n
	}
	// Unknown keywords are ignored.
	return nil
}

// Instance converts the file into a problem instance, splitting the depot
// from the customers.
func (f *File) Instance() (*domain.Instance, error) {
	var (
		depot     domain.Node
		customers []domain.Node
	)
	for _, n := range f.Nodes {
		if n.ID == f.DepotID {
			depot = n
			continue
		}
		customers = append(customers, n)
	}
	in, err := domain.NewInstance(f.Name, depot, customers, f.Capacity)
	if err != nil {
		return nil, fmt.Errorf("tsplib instance: %w", err)
	}
	return in, nil
}

// ParseFile parses path and returns its instance. An unnamed instance is
// named after the file.
func ParseFile(path string) (*File, *domain.Instance, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("tsplib: open %q: %w", path, err)
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, nil, fmt.Errorf("tsplib: parse %q: %w", path, err)
	}
	if f.Name == "" {
		f.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	in, err := f.Instance()
	if err != nil {
		return nil, nil, err
	}
	return f, in, nil
}

var optimalValue = regexp.MustCompile(`Optimal value:\s*(\d+)`)

// OptimalValue extracts "Optimal value: N" from a COMMENT line.
func OptimalValue(comment string) (float64, bool) {
	m := optimalValue.FindStringSubmatch(comment)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
