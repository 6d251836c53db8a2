package main

import (
	"bytes"
	"context"
	"cvrp-route-service/internal/adapters/optimal"
	"cvrp-route-service/internal/adapters/tsplib"
	"cvrp-route-service/internal/config"
	"cvrp-route-service/internal/services"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineVRP = "NAME : line\n" +
	"COMMENT : (No of trucks: 2, Optimal value: 8)\n" +
	"CAPACITY : 10\n" +
	"NODE_COORD_SECTION\n1 0 0\n2 1 0\n3 2 0\n4 -1 0\n5 -2 0\n" +
	"DEMAND_SECTION\n1 0\n2 5\n3 5\n4 5\n5 5\n" +
	"DEPOT_SECTION\n1\n-1\nEOF\n"

func greedyReport(t *testing.T, opts config.Output) string {
	t.Helper()
	f, err := tsplib.Parse(strings.NewReader(lineVRP))
	require.NoError(t, err)
	in, err := f.Instance()
	require.NoError(t, err)

	res, err := services.NewPlanner(services.DefaultConfig()).Plan(context.Background(), in, services.AlgorithmGreedy)
	require.NoError(t, err)

	var buf bytes.Buffer
	printReport(&buf, report{File: f, Instance: in, Result: res, Catalog: optimal.Default(), Options: opts})
	return buf.String()
}

func TestPrintReport(t *testing.T) {
	out := greedyReport(t, config.Output{RouteDetails: true})

	assert.Contains(t, out, "Problem name: line")
	assert.Contains(t, out, "Customers: 4")
	assert.Contains(t, out, "Total demand: 20 (at least 2 vehicles)")
	assert.Contains(t, out, "SOLUTION RESULTS (greedy)")
	assert.Contains(t, out, "Total cost: 8.00")
	assert.Contains(t, out, "Number of vehicles: 2")
	assert.Contains(t, out, "Vehicle 1: 0 -> 2 -> 3 -> 0 (load 10/10, cost 4.00)")
	assert.Contains(t, out, "Solution validation: PASS")
	assert.Contains(t, out, "Optimal cost: 8")
	assert.Contains(t, out, "Gap from optimal: 0.00%")
}

func TestPrintReportQuiet(t *testing.T) {
	out := greedyReport(t, config.Output{RouteDetails: true, Quiet: true})

	assert.NotContains(t, out, "Problem name")
	assert.NotContains(t, out, "Route details")
	assert.Contains(t, out, "Total cost: 8.00")
	assert.Contains(t, out, "Solution validation: PASS")
}

func TestPrintReportWithoutRouteDetails(t *testing.T) {
	out := greedyReport(t, config.Output{})
	assert.NotContains(t, out, "Vehicle 1:")
}
