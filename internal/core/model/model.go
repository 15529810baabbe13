// Package model defines core domain types shared by the server and the map engine.
package model

import (
	"fmt"
	"math"
	"strings"
)

// ZoomCategory is a discretization of continuous map zoom into a resolution tier.
type ZoomCategory int

const (
	Global ZoomCategory = iota
	Regional
	Local
)

// Category band boundaries. Bands are contiguous and non-overlapping:
// Global [0,3), Regional [3,8), Local [8,22].
const (
	RegionalMinZoom = 3.0
	LocalMinZoom    = 8.0
	MaxZoom         = 22.0
)

func (c ZoomCategory) String() string {
	switch c {
	case Global:
		return "global"
	case Regional:
		return "regional"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("zoomcategory(%d)", int(c))
	}
}

// CategoryForZoom classifies a continuous zoom value into a band.
// Monotonic: higher zoom never yields a less local category.
func CategoryForZoom(zoom float64) ZoomCategory {
	switch {
	case zoom >= LocalMinZoom:
		return Local
	case zoom >= RegionalMinZoom:
		return Regional
	default:
		return Global
	}
}

// ParseZoomCategory parses a category name as it appears on the wire.
func ParseZoomCategory(s string) (ZoomCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global":
		return Global, nil
	case "regional":
		return Regional, nil
	case "local":
		return Local, nil
	default:
		return Global, fmt.Errorf("unknown zoom category %q", s)
	}
}

// LayerKind enumerates every layer the engine can manage. The set is closed:
// dispatch switches over LayerKind so a new kind is a compile-time change.
type LayerKind int

const (
	Temperature LayerKind = iota
	Precipitation
	Wind
	Cloud
	Cities
	Hurricane
	Wildfire
	Disaster
	Forecast
)

var layerKindNames = [...]string{
	Temperature:   "temperature",
	Precipitation: "precipitation",
	Wind:          "wind",
	Cloud:         "cloud",
	Cities:        "cities",
	Hurricane:     "hurricane",
	Wildfire:      "wildfire",
	Disaster:      "disaster",
	Forecast:      "forecast",
}

func (k LayerKind) String() string {
	if int(k) < len(layerKindNames) {
		return layerKindNames[k]
	}
	return fmt.Sprintf("layerkind(%d)", int(k))
}

// TileBacked reports whether the layer is painted from raster tiles and so
// participates in resolution transitions and prefetch.
func (k LayerKind) TileBacked() bool {
	switch k {
	case Temperature, Precipitation, Wind, Cloud:
		return true
	default:
		return false
	}
}

func ParseLayerKind(s string) (LayerKind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range layerKindNames {
		if n == name {
			return LayerKind(i), nil
		}
	}
	return Temperature, fmt.Errorf("unknown layer kind %q", s)
}

// LayerKinds returns all kinds in declaration order.
func LayerKinds() []LayerKind {
	out := make([]LayerKind, len(layerKindNames))
	for i := range layerKindNames {
		out[i] = LayerKind(i)
	}
	return out
}

// LatLng is a WGS-84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance is the Euclidean distance in degrees. Not geodesic; it only gates
// prefetch aggressiveness, never correctness.
func (p LatLng) Distance(o LatLng) float64 {
	dlat := p.Lat - o.Lat
	dlon := p.Lon - o.Lon
	return math.Sqrt(dlat*dlat + dlon*dlon)
}

// Bounds is a geographic bounding box in degrees.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// Expand grows the box by frac of its own width/height on each side.
func (b Bounds) Expand(frac float64) Bounds {
	dw := (b.East - b.West) * frac
	dh := (b.North - b.South) * frac
	return Bounds{
		West:  b.West - dw,
		South: b.South - dh,
		East:  b.East + dw,
		North: b.North + dh,
	}
}

// RoundedKey renders the box with one decimal per edge, the granularity used
// for tile cache keys: nearby viewports share an entry.
func (b Bounds) RoundedKey() string {
	return fmt.Sprintf("%.1f,%.1f,%.1f,%.1f", b.West, b.South, b.East, b.North)
}

func (b Bounds) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.West, b.South, b.East, b.North)
}

// Validate checks coordinate ranges and edge ordering.
func (b Bounds) Validate() error {
	if !(b.West >= -180 && b.West <= 180 && b.East >= -180 && b.East <= 180) {
		return fmt.Errorf("longitude must be in [-180,180]")
	}
	if !(b.South >= -90 && b.South <= 90 && b.North >= -90 && b.North <= 90) {
		return fmt.Errorf("latitude must be in [-90,90]")
	}
	if b.East <= b.West || b.North <= b.South {
		return fmt.Errorf("bounds must satisfy east>west and north>south")
	}
	return nil
}
