package tsplib

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smallVRP = `NAME : toy-n5-k2
COMMENT : (Test instance, No of trucks: 2, Optimal value: 8)
TYPE : CVRP
DIMENSION : 5
EDGE_WEIGHT_TYPE : EUC_2D
CAPACITY : 10
NODE_COORD_SECTION
 1 0 0
 2 1 0
 3 2 0
 4 -1 0
 5 -2 0
DEMAND_SECTION
1 0
2 5
3 5
4 5
5 5
DEPOT_SECTION
 1
 -1
EOF
`

func TestParse(t *testing.T) {
	f, err := Parse(strings.NewReader(smallVRP))
	require.NoError(t, err)

	assert.Equal(t, "toy-n5-k2", f.Name)
	assert.Equal(t, "CVRP", f.Type)
	assert.Equal(t, 5, f.Dimension)
	assert.Equal(t, 10, f.Capacity)
	assert.Equal(t, 1, f.DepotID)
	require.Len(t, f.Nodes, 5)
	assert.Equal(t, -2.0, f.Nodes[4].X)
	assert.Equal(t, 5, f.Nodes[4].Demand)

	in, err := f.Instance()
	require.NoError(t, err)
	assert.Equal(t, 4, in.NumCustomers())
	assert.Equal(t, 1, in.Depot().ID)
	assert.InDelta(t, 2.0, in.Dist(0, 2), 1e-12)

	opt, ok := OptimalValue(f.Comment)
	require.True(t, ok)
	assert.Equal(t, 8.0, opt)
}

func TestParseDefaultsDepotToFirstNode(t *testing.T) {
	src := "NAME: nodepot\nCAPACITY: 5\nNODE_COORD_SECTION\n1 0 0\n2 3 4\nDEMAND_SECTION\n2 1\nEOF\n"
	f, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 1, f.DepotID)
	assert.Equal(t, 0, f.Nodes[0].Demand)

	in, err := f.Instance()
	require.NoError(t, err)
	assert.InDelta(t, 5.0, in.Dist(0, 1), 1e-12)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"bad coordinate": "NODE_COORD_SECTION\n1 a 0\nEOF",
		"short demand":   "NODE_COORD_SECTION\n1 0 0\nDEMAND_SECTION\n1\nEOF",
		"unknown demand": "NODE_COORD_SECTION\n1 0 0\nDEMAND_SECTION\n7 3\nEOF",
		"dimension":      "DIMENSION: 3\nNODE_COORD_SECTION\n1 0 0\nEOF",
		"edge weights":   "EDGE_WEIGHT_TYPE: GEO\nEOF",
		"duplicate node": "NODE_COORD_SECTION\n1 0 0\n1 1 1\nEOF",
		"inf coordinate": "NODE_COORD_SECTION\n1 0 0\n2 inf 0\nEOF",
		"nan coordinate": "NODE_COORD_SECTION\n1 0 0\n2 0 NaN\nEOF",
		"out of range":   "NODE_COORD_SECTION\n1 0 0\n2 1e400 0\nEOF",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(src))
			assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
		})
	}
}

func TestParseFileNamesFromPath(t *testing.T) {
	src := strings.Replace(smallVRP, "NAME : toy-n5-k2\n", "", 1)
	path := filepath.Join(t.TempDir(), "A-n5-k2.vrp")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	f, in, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A-n5-k2", f.Name)
	assert.Equal(t, "A-n5-k2", in.Name())
}

func TestOptimalValueMissing(t *testing.T) {
	_, ok := OptimalValue("(Augerat et al, No of trucks: 5)")
	assert.False(t, ok)
}
