// Package engine is the client-side map engine: it tracks the viewport,
// classifies zoom into resolution bands, manages layer lifecycles, crossfades
// between resolutions on band crossings, and prefetches tile metadata ahead of
// panning. It talks to the map renderer only through the MapSurface
// capability interface, so it runs against a fake surface in tests.
package engine

import (
	"github.com/atmoscope/atmoscope/internal/core/model"
)

// MapSurface is the narrow capability set the engine needs from a map
// renderer. Implementations bind a real rendering library; tests use a fake.
type MapSurface interface {
	AddSource(id string, spec SourceSpec) error
	AddLayer(spec LayerSpec) error
	RemoveLayer(id string) error
	RemoveSource(id string) error
	// HasLayer lets delayed teardowns verify a sublayer still exists before
	// removing it; an overlapping transition may have removed it already.
	HasLayer(id string) bool
	SetLayoutProperty(layerID, prop string, value any) error
	SetPaintProperty(layerID, prop string, value any) error
	Zoom() float64
	Bounds() model.Bounds
	Center() model.LatLng
}

// SourceSpec describes either a raster tile source or a feature source.
type SourceSpec struct {
	Type     string    `json:"type"` // "raster" or "feature"
	Tiles    []string  `json:"tiles,omitempty"`
	TileSize int       `json:"tileSize,omitempty"`
	Features []Feature `json:"features,omitempty"`
}

// Feature is a renderable point or line with display properties.
type Feature struct {
	ID         string         `json:"id"`
	Location   model.LatLng   `json:"location"`
	Line       []model.LatLng `json:"line,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// LayerSpec describes one visual sublayer bound to a source.
type LayerSpec struct {
	ID       string         `json:"id"`
	SourceID string         `json:"sourceId"`
	Type     string         `json:"type"` // "raster", "circle", "line", "symbol"
	Paint    map[string]any `json:"paint,omitempty"`
	Layout   map[string]any `json:"layout,omitempty"`
}

const (
	sourceTypeRaster  = "raster"
	sourceTypeFeature = "feature"

	layerTypeRaster = "raster"
	layerTypeCircle = "circle"
	layerTypeLine   = "line"
	layerTypeSymbol = "symbol"

	visibilityVisible = "visible"
	visibilityNone    = "none"
)
