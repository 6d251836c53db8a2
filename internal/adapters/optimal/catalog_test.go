package optimal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()

	s, ok := c.Lookup("A-n32-k5")
	require.True(t, ok)
	assert.Equal(t, 784.0, s.Cost)
	assert.Equal(t, 5, s.Vehicles)

	_, ok = c.Lookup("data/instances/A-n32-k5.vrp")
	assert.True(t, ok)

	gap, ok := c.Gap("A-n32-k5", 862.4)
	require.True(t, ok)
	assert.InDelta(t, 10.0, gap, 1e-9)

	_, ok = c.Gap("unknown", 100)
	assert.False(t, ok)
	assert.Contains(t, c.Names(), "X-n101-k25")
}

func TestLoadOverridesBuiltin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	data := "A-n32-k5:\n  optimal_cost: 700\n  optimal_vehicles: 4\ntoy:\n  optimal_cost: 8\n  optimal_vehicles: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	c, err := Load(path)
	require.NoError(t, err)

	s, _ := c.Lookup("A-n32-k5")
	assert.Equal(t, 700.0, s.Cost)
	s, ok := c.Lookup("toy")
	require.True(t, ok)
	assert.Equal(t, 2, s.Vehicles)
	_, ok = c.Lookup("E-n51-k5")
	assert.True(t, ok)
}

func TestParseRejectsNonPositiveCost(t *testing.T) {
	_, err := Parse([]byte("bad:\n  optimal_cost: 0\n"))
	assert.Error(t, err)
}
