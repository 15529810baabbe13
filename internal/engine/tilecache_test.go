package engine

import (
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/model"
)

func TestTileCache_RoundTrip(t *testing.T) {
	c, err := newTileCache(4, clockwork.NewFakeClock())
	require.NoError(t, err)

	b := model.Bounds{West: 10, South: 50, East: 20, North: 60}
	_, ok := c.get(model.Wind, model.Regional, b)
	assert.False(t, ok)

	md, err := catalog.Lookup(model.Wind, model.Regional)
	require.NoError(t, err)
	c.put(model.Wind, model.Regional, b, md)

	got, ok := c.get(model.Wind, model.Regional, b)
	require.True(t, ok)
	assert.Equal(t, md.URL, got.URL)
}

func TestTileCache_KeyDiscriminates(t *testing.T) {
	c, err := newTileCache(8, clockwork.NewFakeClock())
	require.NoError(t, err)

	b := model.Bounds{West: 10, South: 50, East: 20, North: 60}
	md, err := catalog.Lookup(model.Wind, model.Regional)
	require.NoError(t, err)
	c.put(model.Wind, model.Regional, b, md)

	_, ok := c.get(model.Cloud, model.Regional, b)
	assert.False(t, ok, "kind is part of the key")
	_, ok = c.get(model.Wind, model.Local, b)
	assert.False(t, ok, "category is part of the key")
	_, ok = c.get(model.Wind, model.Regional, model.Bounds{West: 11, South: 50, East: 20, North: 60})
	assert.False(t, ok, "bounds are part of the key")
}

func TestTileCache_RoundedBoundsCollapse(t *testing.T) {
	c, err := newTileCache(4, clockwork.NewFakeClock())
	require.NoError(t, err)

	md, err := catalog.Lookup(model.Precipitation, model.Local)
	require.NoError(t, err)
	c.put(model.Precipitation, model.Local, model.Bounds{West: 10.01, South: 50.02, East: 20.01, North: 60.04}, md)

	// a sub-tenth-of-a-degree wiggle maps to the same rounded key
	_, ok := c.get(model.Precipitation, model.Local, model.Bounds{West: 10.04, South: 50.04, East: 19.99, North: 60.01})
	assert.True(t, ok)
}

func TestTileCache_EvictsOldestBeyondCapacity(t *testing.T) {
	c, err := newTileCache(3, clockwork.NewFakeClock())
	require.NoError(t, err)

	md, err := catalog.Lookup(model.Temperature, model.Regional)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		b := model.Bounds{West: float64(i * 10), South: 0, East: float64(i*10 + 5), North: 5}
		c.put(model.Temperature, model.Regional, b, md)
	}

	assert.Equal(t, 3, c.len())
	_, ok := c.get(model.Temperature, model.Regional, model.Bounds{West: 0, South: 0, East: 5, North: 5})
	assert.False(t, ok, "oldest entry is evicted")
	_, ok = c.get(model.Temperature, model.Regional, model.Bounds{West: 40, South: 0, East: 45, North: 5})
	assert.True(t, ok)
}

func TestTileCache_ZeroSizeFallsBackToDefault(t *testing.T) {
	c, err := newTileCache(0, nil)
	require.NoError(t, err)

	md, err := catalog.Lookup(model.Cloud, model.Global)
	require.NoError(t, err)
	for i := 0; i < 600; i++ {
		b := model.Bounds{West: float64(i), South: 0, East: float64(i) + 0.5, North: 1}
		c.put(model.Cloud, model.Global, b, md)
	}
	assert.Equal(t, 512, c.len())
}

func TestTileCacheKey_Format(t *testing.T) {
	b := model.Bounds{West: 10.04, South: 50, East: 20, North: 60}
	key := tileCacheKey(model.Wind, model.Regional, b)
	assert.Equal(t, fmt.Sprintf("wind|regional|%s", b.RoundedKey()), key)
}
