package services

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnPoolRejectsSameCustomerSet(t *testing.T) {
	in := lineInstance(t)
	p := NewColumnPool()

	require.True(t, p.Add(mustRoute(t, in, idA, idB)))
	assert.False(t, p.Add(mustRoute(t, in, idB, idA)), "same set in another order")
	assert.True(t, p.Contains(mustRoute(t, in, idB, idA)))
	assert.True(t, p.Add(mustRoute(t, in, idA)))
	assert.Equal(t, 2, p.Len())
}

func TestColumnPoolKeysStayUnique(t *testing.T) {
	in := lineInstance(t)
	ids := []int{idA, idB, idC, idD}
	rng := rand.New(rand.NewPCG(7, 11))
	p := NewColumnPool()

	for i := 0; i < 500; i++ {
		perm := rng.Perm(len(ids))
		k := 1 + rng.IntN(len(ids))
		seq := make([]int, k)
		for j := 0; j < k; j++ {
			seq[j] = ids[perm[j]]
		}
		before := p.Len()
		added := p.Add(mustRoute(t, in, seq...))
		if added {
			assert.Equal(t, before+1, p.Len())
		} else {
			assert.Equal(t, before, p.Len())
		}
	}

	seen := map[string]bool{}
	for _, r := range p.Routes() {
		assert.False(t, seen[r.Key()], "duplicate key %s", r.Key())
		seen[r.Key()] = true
	}
	// 4 customers have 15 non-empty subsets.
	assert.LessOrEqual(t, p.Len(), 15)
}

func TestColumnPoolFreeze(t *testing.T) {
	in := lineInstance(t)
	p := NewColumnPool()
	require.True(t, p.Add(mustRoute(t, in, idA)))

	p.Freeze()
	assert.True(t, p.Frozen())
	assert.False(t, p.Add(mustRoute(t, in, idB)))
	assert.Equal(t, 1, p.Len())
}

func TestColumnPoolUncovered(t *testing.T) {
	in := lineInstance(t)
	p := NewColumnPool()
	p.Add(mustRoute(t, in, idA, idC))

	assert.Equal(t, []int{idB, idD}, p.Uncovered(in))
}
