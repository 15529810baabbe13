package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

// layerRecord tracks one rendered layer: its sublayers and sources on the
// surface, its visibility, and the zoom category it was built at.
type layerRecord struct {
	kind      model.LayerKind
	visible   bool
	category  model.ZoomCategory
	sublayers []string
	sources   []string
}

// layerManager is the per-layer state machine: inactive, active, hidden. It is
// not safe for concurrent use; the engine serializes calls behind its mutex.
type layerManager struct {
	surface MapSurface
	api     WeatherAPI
	tiles   *tileCache
	log     *slog.Logger
	records map[model.LayerKind]*layerRecord
}

func newLayerManager(surface MapSurface, api WeatherAPI, tiles *tileCache, log *slog.Logger) *layerManager {
	if log == nil {
		log = slog.Default()
	}
	return &layerManager{
		surface: surface,
		api:     api,
		tiles:   tiles,
		log:     log,
		records: make(map[model.LayerKind]*layerRecord),
	}
}

// Show activates a layer. A hidden layer is re-shown in place; anything else
// is a fresh creation at the category implied by the current zoom, tearing
// down any prior sublayer set with the same id first. The cities layer
// follows temperature and cannot be toggled on its own.
func (m *layerManager) Show(ctx context.Context, kind model.LayerKind) error {
	if kind == model.Cities {
		return nil
	}
	err := m.show(ctx, kind)
	if kind == model.Temperature {
		coErr := m.show(ctx, model.Cities)
		if err == nil {
			err = coErr
		}
	}
	return err
}

func (m *layerManager) show(ctx context.Context, kind model.LayerKind) error {
	if rec, ok := m.records[kind]; ok && !rec.visible {
		for _, id := range rec.sublayers {
			if err := m.surface.SetLayoutProperty(id, "visibility", visibilityVisible); err != nil {
				m.log.Warn("re-show sublayer failed", "layer", kind.String(), "sublayer", id, "err", err)
			}
		}
		rec.visible = true
		return nil
	}

	m.teardown(kind)

	cat := model.CategoryForZoom(m.surface.Zoom())
	if err := m.build(ctx, kind, cat, true); err != nil {
		return err
	}
	return nil
}

// Hide flips a layer's sublayers to invisible while keeping sources around
// for a fast re-show. Temperature drags cities down with it.
func (m *layerManager) Hide(kind model.LayerKind) {
	if kind == model.Cities {
		return
	}
	m.hide(kind)
	if kind == model.Temperature {
		m.hide(model.Cities)
	}
}

func (m *layerManager) hide(kind model.LayerKind) {
	rec, ok := m.records[kind]
	if !ok || !rec.visible {
		return
	}
	for _, id := range rec.sublayers {
		if err := m.surface.SetLayoutProperty(id, "visibility", visibilityNone); err != nil {
			m.log.Warn("hide sublayer failed", "layer", kind.String(), "sublayer", id, "err", err)
		}
	}
	rec.visible = false
}

// Refresh rebuilds a layer at a new zoom category, preserving its visibility
// flag: refreshing a hidden layer must not reveal it.
func (m *layerManager) Refresh(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory) error {
	rec, ok := m.records[kind]
	if !ok {
		return fmt.Errorf("layer %q not created", kind)
	}
	visible := rec.visible
	m.teardown(kind)
	return m.build(ctx, kind, cat, visible)
}

// Remove tears a layer down completely.
func (m *layerManager) Remove(kind model.LayerKind) {
	m.teardown(kind)
	if kind == model.Temperature {
		m.teardown(model.Cities)
	}
}

// IsActive reports whether a layer is created and visible.
func (m *layerManager) IsActive(kind model.LayerKind) bool {
	rec, ok := m.records[kind]
	return ok && rec.visible
}

// ActiveTileBacked lists visible tile-backed layers in enum order.
func (m *layerManager) ActiveTileBacked() []model.LayerKind {
	var out []model.LayerKind
	for _, kind := range model.LayerKinds() {
		if kind.TileBacked() && m.IsActive(kind) {
			out = append(out, kind)
		}
	}
	return out
}

// Category returns the zoom category a layer was last built at.
func (m *layerManager) Category(kind model.LayerKind) (model.ZoomCategory, bool) {
	rec, ok := m.records[kind]
	if !ok {
		return 0, false
	}
	return rec.category, true
}

func (m *layerManager) build(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, visible bool) error {
	sublayers, sources, err := m.buildKind(ctx, kind, cat, visible)
	if err != nil {
		m.log.Error("layer build failed", "layer", kind.String(), "category", cat.String(), "err", err)
		if kind != model.Temperature {
			return fmt.Errorf("build %s layer: %w", kind, err)
		}
		// temperature always gets something to render so the control panel
		// never shows an inconsistent empty state
		sublayers, sources, err = m.buildPlaceholder(kind, visible)
		if err != nil {
			return fmt.Errorf("build %s placeholder: %w", kind, err)
		}
	}
	m.records[kind] = &layerRecord{
		kind:      kind,
		visible:   visible,
		category:  cat,
		sublayers: sublayers,
		sources:   sources,
	}
	return nil
}

func (m *layerManager) teardown(kind model.LayerKind) {
	rec, ok := m.records[kind]
	if !ok {
		return
	}
	for _, id := range rec.sublayers {
		if !m.surface.HasLayer(id) {
			continue
		}
		if err := m.surface.RemoveLayer(id); err != nil {
			m.log.Warn("remove sublayer failed", "sublayer", id, "err", err)
		}
	}
	for _, id := range rec.sources {
		if err := m.surface.RemoveSource(id); err != nil {
			m.log.Warn("remove source failed", "source", id, "err", err)
		}
	}
	delete(m.records, kind)
}
