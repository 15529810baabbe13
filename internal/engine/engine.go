package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/atmoscope/atmoscope/internal/core/config"
	"github.com/atmoscope/atmoscope/internal/core/model"
)

// Options configures an Engine. Zero values fall back to the defaults in
// config.EngineFromEnv.
type Options struct {
	Clock  clockwork.Clock
	Logger *slog.Logger
	Config config.EngineConfig
}

// Engine is the per-map-instance coordinator. All mutable state lives inside;
// the mutex serializes operations because the settle and debounce timers fire
// on their own goroutines.
type Engine struct {
	mu       sync.Mutex
	surface  MapSurface
	api      WeatherAPI
	clock    clockwork.Clock
	log      *slog.Logger
	cfg      config.EngineConfig
	tiles    *tileCache
	viewport *viewportTracker
	layers   *layerManager
	trans    *transitioner
	prefetch *prefetcher

	category  model.ZoomCategory
	zoomTimer clockwork.Timer
	closed    bool
}

func New(surface MapSurface, api WeatherAPI, opts Options) (*Engine, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := opts.Config
	if cfg == (config.EngineConfig{}) {
		cfg = config.EngineFromEnv()
	}

	tiles, err := newTileCache(cfg.TileCacheSize, clock)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		surface:  surface,
		api:      api,
		clock:    clock,
		log:      log,
		cfg:      cfg,
		tiles:    tiles,
		viewport: newViewportTracker(cfg.ZoomDelta, cfg.CenterDelta),
		category: model.CategoryForZoom(surface.Zoom()),
	}
	e.layers = newLayerManager(surface, api, tiles, log)
	e.trans = newTransitioner(surface, e.layers, clock, cfg.SettleDelay, log, e.commitTransition)
	e.prefetch = newPrefetcher(api, tiles, clock, cfg.PrefetchPacing, cfg.PrefetchExpand, log)
	return e, nil
}

// ShowLayer activates a layer at the current zoom category.
func (e *Engine) ShowLayer(ctx context.Context, kind model.LayerKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	return e.layers.Show(ctx, kind)
}

// HideLayer hides a layer, keeping its sources for a fast re-show.
func (e *Engine) HideLayer(kind model.LayerKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.layers.Hide(kind)
}

// RemoveLayer tears a layer down completely.
func (e *Engine) RemoveLayer(kind model.LayerKind) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.layers.Remove(kind)
}

// LayerActive reports whether a layer is created and visible.
func (e *Engine) LayerActive(kind model.LayerKind) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.layers.IsActive(kind)
}

// Category returns the engine's current zoom category.
func (e *Engine) Category() model.ZoomCategory {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.category
}

// OnMoveEnd is invoked by the host binding after every camera move. It
// records the viewport and, when the move is significant, queues prefetch
// warms for the expanded area.
func (e *Engine) OnMoveEnd() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	vp := ViewportState{
		Bounds: e.surface.Bounds(),
		Center: e.surface.Center(),
		Zoom:   e.surface.Zoom(),
	}
	significant := e.viewport.observe(vp)
	active := e.layers.ActiveTileBacked()
	e.mu.Unlock()

	if significant {
		e.prefetch.EnqueueViewport(vp, active)
	}
}

// OnZoomEnd is invoked by the host binding after every zoom gesture. The
// classification decision is debounced so a rapid wheel burst collapses into
// one transition.
func (e *Engine) OnZoomEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if e.zoomTimer != nil {
		e.zoomTimer.Reset(e.cfg.ZoomDebounce)
		return
	}
	e.zoomTimer = e.clock.AfterFunc(e.cfg.ZoomDebounce, e.reclassify)
}

// reclassify runs after the zoom debounce window closes. A category change
// starts a crossfade for every active tile-backed layer.
func (e *Engine) reclassify() {
	e.mu.Lock()
	e.zoomTimer = nil
	if e.closed {
		e.mu.Unlock()
		return
	}
	next := model.CategoryForZoom(e.surface.Zoom())
	prev := e.category
	if next == prev {
		e.mu.Unlock()
		return
	}
	e.category = next
	active := e.layers.ActiveTileBacked()

	ctx := context.Background()
	for _, kind := range active {
		if err := e.trans.Begin(ctx, kind, prev, next); err != nil {
			e.log.Error("transition failed, refreshing directly",
				"layer", kind.String(), "from", prev.String(), "to", next.String(), "err", err)
			if err := e.layers.Refresh(ctx, kind, next); err != nil {
				e.log.Error("direct refresh failed", "layer", kind.String(), "err", err)
			}
		}
	}
	e.mu.Unlock()
}

// commitTransition is handed to the transitioner: after the settle delay it
// re-enters the engine lock and commits the layer at its new category.
func (e *Engine) commitTransition(kind model.LayerKind, to model.ZoomCategory) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	if err := e.layers.Refresh(context.Background(), kind, to); err != nil {
		e.log.Error("transition commit failed", "layer", kind.String(), "to", to.String(), "err", err)
	}
}

// Close stops the debounce timer, cancels pending transitions, and shuts the
// prefetch consumer down.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	if e.zoomTimer != nil {
		e.zoomTimer.Stop()
		e.zoomTimer = nil
	}
	e.mu.Unlock()

	e.trans.Close()
	e.prefetch.Close()
}
