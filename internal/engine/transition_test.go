package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

func TestCrossfadeRamps_SumToOneAcrossBoundary(t *testing.T) {
	out, in := crossfadeRamps(model.Global, model.Regional)

	assert.InDelta(t, 2.5, out.StartZoom, 1e-9)
	assert.InDelta(t, 3.5, out.EndZoom, 1e-9)

	assert.InDelta(t, 1, out.At(2.5), 1e-9)
	assert.InDelta(t, 0, in.At(2.5), 1e-9)
	assert.InDelta(t, 0, out.At(3.5), 1e-9)
	assert.InDelta(t, 1, in.At(3.5), 1e-9)

	for z := 2.5; z <= 3.5; z += 0.05 {
		assert.InDelta(t, 1, out.At(z)+in.At(z), 1e-9, "zoom %v", z)
	}
}

func TestCrossfadeRamps_ZoomOutUsesSameRange(t *testing.T) {
	out, in := crossfadeRamps(model.Local, model.Regional)

	assert.InDelta(t, 7.5, out.StartZoom, 1e-9)
	assert.InDelta(t, 8.5, out.EndZoom, 1e-9)

	// outgoing is the local band: opaque above the boundary, gone below
	assert.InDelta(t, 0, out.At(7.5), 1e-9)
	assert.InDelta(t, 1, out.At(8.5), 1e-9)
	for z := 7.5; z <= 8.5; z += 0.05 {
		assert.InDelta(t, 1, out.At(z)+in.At(z), 1e-9, "zoom %v", z)
	}
}

func TestOpacityRamp_ClampsOutsideRange(t *testing.T) {
	r := OpacityRamp{StartZoom: 2.5, EndZoom: 3.5, StartOpacity: 1, EndOpacity: 0}
	assert.InDelta(t, 1, r.At(0), 1e-9)
	assert.InDelta(t, 0, r.At(10), 1e-9)
}

func TestOpacityRamp_Expression(t *testing.T) {
	r := OpacityRamp{StartZoom: 2.5, EndZoom: 3.5, StartOpacity: 1, EndOpacity: 0}
	expr := r.Expression()
	require.Len(t, expr, 7)
	assert.Equal(t, "interpolate", expr[0])
	assert.Equal(t, []any{"zoom"}, expr[2])
	assert.Equal(t, 2.5, expr[3])
	assert.Equal(t, 1.0, expr[4])
}

type commitRecorder struct {
	mu    sync.Mutex
	calls []model.LayerKind
}

func (c *commitRecorder) commit(kind model.LayerKind, _ model.ZoomCategory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, kind)
}

func (c *commitRecorder) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func newTestTransitioner(t *testing.T, surface *fakeSurface, clk clockwork.Clock) (*transitioner, *commitRecorder) {
	t.Helper()
	m := newTestManager(t, surface, &fakeAPI{})
	rec := &commitRecorder{}
	return newTransitioner(surface, m, clk, time.Second, nil, rec.commit), rec
}

func TestBegin_RejectsNonTileBacked(t *testing.T) {
	tr, _ := newTestTransitioner(t, newFakeSurface(), clockwork.NewFakeClock())
	err := tr.Begin(context.Background(), model.Hurricane, model.Regional, model.Local)
	require.Error(t, err)
}

func TestBegin_SettleRemovesTransientsAndCommits(t *testing.T) {
	surface := newFakeSurface()
	clk := clockwork.NewFakeClock()
	tr, rec := newTestTransitioner(t, surface, clk)

	require.NoError(t, tr.Begin(context.Background(), model.Temperature, model.Regional, model.Local))

	id := transitionID(model.Temperature, model.Regional, model.Local)
	require.True(t, surface.HasLayer("lyr-xfade-"+id+"-out"))
	require.True(t, surface.HasLayer("lyr-xfade-"+id+"-in"))

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.False(t, surface.HasLayer("lyr-xfade-"+id+"-out"))
	assert.False(t, surface.HasLayer("lyr-xfade-"+id+"-in"))
}

func TestBegin_SupersedesPendingTransition(t *testing.T) {
	surface := newFakeSurface()
	clk := clockwork.NewFakeClock()
	tr, rec := newTestTransitioner(t, surface, clk)
	ctx := context.Background()

	require.NoError(t, tr.Begin(ctx, model.Temperature, model.Regional, model.Local))
	first := transitionID(model.Temperature, model.Regional, model.Local)

	require.NoError(t, tr.Begin(ctx, model.Temperature, model.Local, model.Regional))
	second := transitionID(model.Temperature, model.Local, model.Regional)

	assert.False(t, surface.HasLayer("lyr-xfade-"+first+"-out"), "superseded pair must be torn down")
	require.True(t, surface.HasLayer("lyr-xfade-"+second+"-in"))

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)

	rec.mu.Lock()
	kind := rec.calls[0]
	rec.mu.Unlock()
	assert.Equal(t, model.Temperature, kind)
	assert.False(t, surface.HasLayer("lyr-xfade-"+second+"-in"))

	// a second advance must not produce a commit from the cancelled timer
	clk.Advance(time.Second)
	assert.Equal(t, 1, rec.count())
}

func TestBegin_CleanupTolerates_ExternallyRemovedSublayer(t *testing.T) {
	surface := newFakeSurface()
	clk := clockwork.NewFakeClock()
	tr, rec := newTestTransitioner(t, surface, clk)

	require.NoError(t, tr.Begin(context.Background(), model.Wind, model.Global, model.Regional))
	id := transitionID(model.Wind, model.Global, model.Regional)
	require.NoError(t, surface.RemoveLayer("lyr-xfade-"+id+"-out"))

	clk.Advance(time.Second)
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, time.Millisecond)
	assert.False(t, surface.HasLayer("lyr-xfade-"+id+"-in"))
}

func TestTransitionerClose_CancelsPending(t *testing.T) {
	surface := newFakeSurface()
	clk := clockwork.NewFakeClock()
	tr, rec := newTestTransitioner(t, surface, clk)

	require.NoError(t, tr.Begin(context.Background(), model.Cloud, model.Regional, model.Local))
	tr.Close()

	id := transitionID(model.Cloud, model.Regional, model.Local)
	assert.False(t, surface.HasLayer("lyr-xfade-"+id+"-out"))

	clk.Advance(2 * time.Second)
	assert.Equal(t, 0, rec.count())
}
