// Package catalog is the static resolution catalog: a pure lookup from
// (tile-backed layer kind, zoom category) to tile metadata. It doubles as the
// hardcoded failover when the tile metadata endpoint is unreachable.
package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/atmoscope/atmoscope/internal/core/model"
)

// TileMetadata describes one raster tile source. URL carries {z}/{x}/{y}
// placeholders for the renderer.
type TileMetadata struct {
	URL          string        `json:"url"`
	TileSize     int           `json:"tileSize"`
	MinZoom      float64       `json:"minZoom"`
	MaxZoom      float64       `json:"maxZoom"`
	Resolution   string        `json:"resolution"`
	Attribution  string        `json:"attribution"`
	TileCoverage *model.Bounds `json:"tileCoverage"`
	Timestamp    int64         `json:"timestamp"`
}

const owmAttribution = "Weather data © OpenWeatherMap"

// owmLayer maps a layer kind to the OpenWeatherMap tile layer name.
func owmLayer(kind model.LayerKind) string {
	switch kind {
	case model.Temperature:
		return "temp_new"
	case model.Precipitation:
		return "precipitation_new"
	case model.Wind:
		return "wind_new"
	case model.Cloud:
		return "clouds_new"
	default:
		return ""
	}
}

type band struct {
	resolution string
	tileSize   int
	minZoom    float64
	maxZoom    float64
}

// Zoom bounds follow the category bands; each source overlaps its neighbor by
// its own edge zoom so the crossfade has room on both sides of the boundary.
var bands = map[model.ZoomCategory]band{
	model.Global:   {resolution: "low", tileSize: 256, minZoom: 0, maxZoom: model.RegionalMinZoom},
	model.Regional: {resolution: "medium", tileSize: 256, minZoom: model.RegionalMinZoom, maxZoom: model.LocalMinZoom},
	model.Local:    {resolution: "high", tileSize: 512, minZoom: model.LocalMinZoom, maxZoom: model.MaxZoom},
}

// Lookup returns metadata for a tile-backed kind at a zoom category.
func Lookup(kind model.LayerKind, cat model.ZoomCategory) (TileMetadata, error) {
	layer := owmLayer(kind)
	if layer == "" {
		return TileMetadata{}, fmt.Errorf("layer kind %q is not tile-backed", kind)
	}
	b, ok := bands[cat]
	if !ok {
		return TileMetadata{}, fmt.Errorf("no band for category %q", cat)
	}
	return TileMetadata{
		URL:         fmt.Sprintf("https://tile.openweathermap.org/map/%s/{z}/{x}/{y}.png", layer),
		TileSize:    b.tileSize,
		MinZoom:     b.minZoom,
		MaxZoom:     b.maxZoom,
		Resolution:  b.resolution,
		Attribution: owmAttribution,
		Timestamp:   time.Now().UnixMilli(),
	}, nil
}

// WithAPIKey appends the appid query parameter to a tile URL template.
func WithAPIKey(md TileMetadata, key string) TileMetadata {
	if key == "" {
		return md
	}
	sep := "?"
	if strings.Contains(md.URL, "?") {
		sep = "&"
	}
	md.URL += sep + "appid=" + key
	return md
}
