package lb

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/apperr"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/geo"
	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

func newTestRegistry(t *testing.T, algo pool.Algorithm, nodes ...pool.NodeSpec) (*pool.Registry, string) {
	t.Helper()
	r := pool.NewRegistry()
	id, err := r.Add(pool.PoolSpec{Name: "test pool", Algorithm: algo, Nodes: nodes})
	require.NoError(t, err)
	return r, id
}

func node(id, region string, conns int) pool.NodeSpec {
	return pool.NodeSpec{
		ID:                 id,
		URL:                "https://" + id,
		Region:             region,
		CurrentConnections: conns,
		MaxConnections:     100,
	}
}

func TestBalancer_NeverReturnsDisabledNode(t *testing.T) {
	reg, id := newTestRegistry(t, pool.AlgorithmLeastConnections,
		node("a", "us-east-1", 0), node("b", "us-east-1", 50))
	b := NewBalancer(reg, nil, nil)

	disabled := false
	_, err := reg.UpdateNode(id, "a", pool.NodePatch{Enabled: &disabled})
	require.NoError(t, err)

	sel, err := b.PickNode(id, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", sel.Node.ID)
	assert.Equal(t, pool.AlgorithmLeastConnections, sel.Algorithm)
}

func TestBalancer_NoHealthyNode(t *testing.T) {
	for _, algo := range []pool.Algorithm{
		pool.AlgorithmRoundRobin, pool.AlgorithmWeightedRoundRobin, pool.AlgorithmLeastConnections,
		pool.AlgorithmGeographic, pool.AlgorithmPerformanceBased,
	} {
		t.Run(string(algo), func(t *testing.T) {
			reg, id := newTestRegistry(t, algo, node("a", "us-east-1", 0), node("b", "eu-west-1", 0))
			b := NewBalancer(reg, rand.New(rand.NewSource(1)), nil)

			disabled := false
			for _, n := range []string{"a", "b"} {
				_, err := reg.UpdateNode(id, n, pool.NodePatch{Enabled: &disabled})
				require.NoError(t, err)
			}

			caller := geo.Coordinate{Latitude: 40, Longitude: -73}
			_, err := b.PickNode(id, &caller)
			assert.True(t, errors.Is(err, apperr.ErrNoHealthyNode), "got %v", err)
		})
	}
}

func TestBalancer_UnknownPool(t *testing.T) {
	b := NewBalancer(pool.NewRegistry(), nil, nil)
	_, err := b.PickNode("missing", nil)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestBalancer_GeographicUsesLocationProviderWhenCallerUnknown(t *testing.T) {
	reg, id := newTestRegistry(t, pool.AlgorithmGeographic,
		node("us", "us-east-1", 400), node("eu", "eu-west-1", 10))
	provider := geo.NewStaticLocation(nil)
	b := NewBalancer(reg, nil, provider)

	sel, err := b.PickNode(id, nil)
	require.NoError(t, err)
	assert.Equal(t, "eu", sel.Node.ID, "no location anywhere: least connections")

	provider.Set(geo.Coordinate{Latitude: 40.0, Longitude: -73.0})
	sel, err = b.PickNode(id, nil)
	require.NoError(t, err)
	assert.Equal(t, "us", sel.Node.ID)

	london := geo.Coordinate{Latitude: 51.5, Longitude: -0.1}
	sel, err = b.PickNode(id, &london)
	require.NoError(t, err)
	assert.Equal(t, "eu", sel.Node.ID, "explicit caller location wins over provider")
}

func TestBalancer_RoundRobinTreatedAsLeastConnections(t *testing.T) {
	reg, id := newTestRegistry(t, pool.AlgorithmRoundRobin,
		node("a", "", 30), node("b", "", 5), node("c", "", 5))
	b := NewBalancer(reg, nil, nil)

	for i := 0; i < 3; i++ {
		sel, err := b.PickNode(id, nil)
		require.NoError(t, err)
		assert.Equal(t, "b", sel.Node.ID)
	}
}
