package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/observability"
)

// OpacityRamp is a piecewise-linear opacity over a zoom range, clamped
// outside it. It renders to a zoom-interpolated paint expression so the
// crossfade is keyed to the live zoom value, not wall-clock time.
type OpacityRamp struct {
	StartZoom    float64
	EndZoom      float64
	StartOpacity float64
	EndOpacity   float64
}

// At samples the ramp at a zoom value.
func (r OpacityRamp) At(zoom float64) float64 {
	if r.EndZoom == r.StartZoom {
		return r.EndOpacity
	}
	t := (zoom - r.StartZoom) / (r.EndZoom - r.StartZoom)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return r.StartOpacity + t*(r.EndOpacity-r.StartOpacity)
}

// Expression renders the ramp as a renderer interpolation expression.
func (r OpacityRamp) Expression() []any {
	return []any{
		"interpolate", []any{"linear"}, []any{"zoom"},
		r.StartZoom, r.StartOpacity,
		r.EndZoom, r.EndOpacity,
	}
}

func bandRange(cat model.ZoomCategory) (minZoom, maxZoom float64) {
	switch cat {
	case model.Global:
		return 0, model.RegionalMinZoom
	case model.Regional:
		return model.RegionalMinZoom, model.LocalMinZoom
	default:
		return model.LocalMinZoom, model.MaxZoom
	}
}

// crossfadeRamps returns the opacity ramps for the outgoing and incoming
// sublayers of a category transition. Both span the half-zoom margin around
// the band boundary; at every zoom in the range they sum to one.
func crossfadeRamps(from, to model.ZoomCategory) (outgoing, incoming OpacityRamp) {
	fromMin, fromMax := bandRange(from)
	toMin, toMax := bandRange(to)

	// orient the range from the more global band toward the more local one
	lo := fromMax - 0.5
	hi := toMin + 0.5
	fromIsGlobal := fromMin < toMin
	if !fromIsGlobal {
		lo = toMax - 0.5
		hi = fromMin + 0.5
	}

	if fromIsGlobal {
		outgoing = OpacityRamp{StartZoom: lo, EndZoom: hi, StartOpacity: 1, EndOpacity: 0}
		incoming = OpacityRamp{StartZoom: lo, EndZoom: hi, StartOpacity: 0, EndOpacity: 1}
		return outgoing, incoming
	}
	outgoing = OpacityRamp{StartZoom: lo, EndZoom: hi, StartOpacity: 0, EndOpacity: 1}
	incoming = OpacityRamp{StartZoom: lo, EndZoom: hi, StartOpacity: 1, EndOpacity: 0}
	return outgoing, incoming
}

// pendingTransition is one in-flight crossfade awaiting its settle cleanup.
type pendingTransition struct {
	id        string
	kind      model.LayerKind
	to        model.ZoomCategory
	sublayers []string
	sources   []string
	timer     clockwork.Timer
}

// transitioner masks the resolution pop on zoom band crossings: it overlays
// two transient sublayers with inverse opacity ramps, waits out the settle
// delay, then removes them and commits the layer at the new category.
type transitioner struct {
	surface MapSurface
	layers  *layerManager
	clock   clockwork.Clock
	settle  time.Duration
	log     *slog.Logger
	commit  func(kind model.LayerKind, to model.ZoomCategory)

	mu      sync.Mutex
	pending map[model.LayerKind]*pendingTransition
}

func newTransitioner(surface MapSurface, layers *layerManager, clock clockwork.Clock, settle time.Duration, log *slog.Logger, commit func(model.LayerKind, model.ZoomCategory)) *transitioner {
	if settle <= 0 {
		settle = time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &transitioner{
		surface: surface,
		layers:  layers,
		clock:   clock,
		settle:  settle,
		log:     log,
		commit:  commit,
		pending: make(map[model.LayerKind]*pendingTransition),
	}
}

func transitionID(kind model.LayerKind, from, to model.ZoomCategory) string {
	return fmt.Sprintf("%s:%s:%s", kind, from, to)
}

// Begin starts a crossfade for one tile-backed layer. A transition already
// pending for the same layer is superseded: its settle timer is cancelled and
// its transient sublayers are removed before the new pair goes up.
func (t *transitioner) Begin(ctx context.Context, kind model.LayerKind, from, to model.ZoomCategory) error {
	if !kind.TileBacked() {
		return fmt.Errorf("layer kind %q is not tile-backed", kind)
	}

	t.mu.Lock()
	if prev, ok := t.pending[kind]; ok {
		prev.timer.Stop()
		t.removeTransient(prev)
		delete(t.pending, kind)
		observability.IncTransition("superseded")
	}
	t.mu.Unlock()

	id := transitionID(kind, from, to)
	mdFrom := t.layers.tileMetadata(ctx, kind, from)
	mdTo := t.layers.tileMetadata(ctx, kind, to)
	outRamp, inRamp := crossfadeRamps(from, to)

	type side struct {
		suffix string
		url    string
		size   int
		ramp   OpacityRamp
	}
	sides := []side{
		{"out", mdFrom.URL, mdFrom.TileSize, outRamp},
		{"in", mdTo.URL, mdTo.TileSize, inRamp},
	}

	p := &pendingTransition{id: id, kind: kind, to: to}
	for _, s := range sides {
		src := fmt.Sprintf("src-xfade-%s-%s", id, s.suffix)
		lyr := fmt.Sprintf("lyr-xfade-%s-%s", id, s.suffix)
		if err := t.surface.AddSource(src, SourceSpec{
			Type:     sourceTypeRaster,
			Tiles:    []string{s.url},
			TileSize: s.size,
		}); err != nil {
			t.removeTransient(p)
			return fmt.Errorf("add crossfade source: %w", err)
		}
		p.sources = append(p.sources, src)
		if err := t.surface.AddLayer(LayerSpec{
			ID:       lyr,
			SourceID: src,
			Type:     layerTypeRaster,
			Paint:    map[string]any{"raster-opacity": s.ramp.Expression()},
		}); err != nil {
			t.removeTransient(p)
			return fmt.Errorf("add crossfade layer: %w", err)
		}
		p.sublayers = append(p.sublayers, lyr)
	}

	t.mu.Lock()
	p.timer = t.clock.AfterFunc(t.settle, func() { t.finish(p) })
	t.pending[kind] = p
	t.mu.Unlock()

	observability.IncTransition("started")
	return nil
}

// finish runs after the settle delay: it verifies the transition was not
// superseded, drops the transient pair, and commits the layer at the target
// category.
func (t *transitioner) finish(p *pendingTransition) {
	t.mu.Lock()
	cur, ok := t.pending[p.kind]
	if !ok || cur.id != p.id || cur != p {
		t.mu.Unlock()
		return
	}
	delete(t.pending, p.kind)
	t.removeTransient(p)
	t.mu.Unlock()

	t.commit(p.kind, p.to)
	observability.IncTransition("committed")
}

// removeTransient tears down a transition's sublayers and sources, checking
// each sublayer still exists first.
func (t *transitioner) removeTransient(p *pendingTransition) {
	for _, id := range p.sublayers {
		if !t.surface.HasLayer(id) {
			continue
		}
		if err := t.surface.RemoveLayer(id); err != nil {
			t.log.Warn("remove crossfade sublayer failed", "sublayer", id, "err", err)
		}
	}
	for _, id := range p.sources {
		if err := t.surface.RemoveSource(id); err != nil {
			t.log.Warn("remove crossfade source failed", "source", id, "err", err)
		}
	}
	p.sublayers = nil
	p.sources = nil
}

// Close cancels every pending settle timer and removes transient sublayers.
func (t *transitioner) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for kind, p := range t.pending {
		p.timer.Stop()
		t.removeTransient(p)
		delete(t.pending, kind)
	}
}
