package engine

import (
	"context"
	"sort"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

func newTestManager(t *testing.T, surface *fakeSurface, api *fakeAPI) *layerManager {
	t.Helper()
	tiles, err := newTileCache(16, clockwork.NewFakeClock())
	require.NoError(t, err)
	return newLayerManager(surface, api, tiles, nil)
}

func sortedLayerIDs(s *fakeSurface) []string {
	ids := s.layerIDs()
	sort.Strings(ids)
	return ids
}

func TestShow_IsIdempotent(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Precipitation))
	first := sortedLayerIDs(surface)

	require.NoError(t, m.Show(ctx, model.Precipitation))
	second := sortedLayerIDs(surface)

	assert.Equal(t, first, second, "second show must leave exactly one sublayer set")
	assert.True(t, m.IsActive(model.Precipitation))
}

func TestShow_HiddenLayerFastPath(t *testing.T) {
	surface := newFakeSurface()
	api := &fakeAPI{}
	m := newTestManager(t, surface, api)
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Wind))
	calls := api.tileCallCount()
	m.Hide(model.Wind)
	assert.False(t, m.IsActive(model.Wind))

	require.NoError(t, m.Show(ctx, model.Wind))
	assert.True(t, m.IsActive(model.Wind))
	assert.Equal(t, calls, api.tileCallCount(), "re-show of a hidden layer must not rebuild")

	lyr := sublayerID(model.Wind, model.Regional, "raster")
	assert.Equal(t, visibilityVisible, surface.layoutOf(lyr, "visibility"))
}

func TestCoActivation_TemperatureDragsCities(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Temperature))
	assert.True(t, m.IsActive(model.Cities), "cities follows temperature up")

	m.Hide(model.Temperature)
	assert.False(t, m.IsActive(model.Cities), "cities follows temperature down")
}

func TestCoActivation_CitiesNotIndependentlyTogglable(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Cities))
	assert.False(t, m.IsActive(model.Cities))

	require.NoError(t, m.Show(ctx, model.Temperature))
	m.Hide(model.Cities)
	assert.True(t, m.IsActive(model.Cities), "direct hide of cities is a no-op")
}

func TestRefresh_PreservesVisibility(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Cloud))
	m.Hide(model.Cloud)

	require.NoError(t, m.Refresh(ctx, model.Cloud, model.Local))
	assert.False(t, m.IsActive(model.Cloud), "refresh must not reveal a hidden layer")

	cat, ok := m.Category(model.Cloud)
	require.True(t, ok)
	assert.Equal(t, model.Local, cat)

	lyr := sublayerID(model.Cloud, model.Local, "raster")
	assert.Equal(t, visibilityNone, surface.layoutOf(lyr, "visibility"))
}

func TestRefresh_ReplacesSublayerSet(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Precipitation))
	old := sublayerID(model.Precipitation, model.Regional, "raster")
	require.True(t, surface.HasLayer(old))

	require.NoError(t, m.Refresh(ctx, model.Precipitation, model.Local))
	assert.False(t, surface.HasLayer(old), "old category sublayer must be removed")
	assert.True(t, surface.HasLayer(sublayerID(model.Precipitation, model.Local, "raster")))
}

func TestBuilderFailure_TemperatureFallsBackToPlaceholder(t *testing.T) {
	surface := newFakeSurface()
	surface.failLayerSubstr = "-raster"
	m := newTestManager(t, surface, &fakeAPI{})

	require.NoError(t, m.Show(context.Background(), model.Temperature))
	assert.True(t, m.IsActive(model.Temperature))
	assert.True(t, surface.HasLayer("lyr-temperature-placeholder"))
}

func TestBuilderFailure_OtherKindsReportError(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{failFeeds: true})

	err := m.Show(context.Background(), model.Hurricane)
	require.Error(t, err)
	assert.False(t, m.IsActive(model.Hurricane))
	assert.Empty(t, surface.layerIDs(), "failed build leaves no sublayers behind")
}

func TestTileBuilder_FallsBackToCatalogOnFetchFailure(t *testing.T) {
	surface := newFakeSurface()
	api := &fakeAPI{failTiles: true}
	m := newTestManager(t, surface, api)

	require.NoError(t, m.Show(context.Background(), model.Wind))
	assert.True(t, m.IsActive(model.Wind), "catalog failover keeps tile layers alive")
}

func TestDisasterBuilder_SkipsEventsWithoutGeometry(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})

	require.NoError(t, m.Show(context.Background(), model.Disaster))

	src := sourceID(model.Disaster, model.Regional)
	surface.mu.Lock()
	spec := surface.sources[src]
	surface.mu.Unlock()
	require.Len(t, spec.Features, 1)
	assert.Equal(t, "eonet-1", spec.Features[0].ID)
}

func TestActiveTileBacked_ListsOnlyVisibleTileLayers(t *testing.T) {
	surface := newFakeSurface()
	m := newTestManager(t, surface, &fakeAPI{})
	ctx := context.Background()

	require.NoError(t, m.Show(ctx, model.Temperature))
	require.NoError(t, m.Show(ctx, model.Wind))
	require.NoError(t, m.Show(ctx, model.Hurricane))
	m.Hide(model.Wind)

	assert.Equal(t, []model.LayerKind{model.Temperature}, m.ActiveTileBacked())
}
