package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/weather"
)

func sourceID(kind model.LayerKind, cat model.ZoomCategory) string {
	return fmt.Sprintf("src-%s-%s", kind, cat)
}

func sublayerID(kind model.LayerKind, cat model.ZoomCategory, part string) string {
	return fmt.Sprintf("lyr-%s-%s-%s", kind, cat, part)
}

func visibility(visible bool) string {
	if visible {
		return visibilityVisible
	}
	return visibilityNone
}

// buildKind dispatches to the builder for a layer kind. The switch is
// exhaustive over the closed enum; a new kind fails loudly instead of being
// silently skipped.
func (m *layerManager) buildKind(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	switch kind {
	case model.Temperature, model.Precipitation, model.Wind, model.Cloud:
		return m.buildTileLayer(ctx, kind, cat, visible)
	case model.Cities:
		return m.buildCities(cat, visible)
	case model.Hurricane:
		return m.buildHurricane(ctx, cat, visible)
	case model.Wildfire:
		return m.buildWildfire(ctx, cat, visible)
	case model.Disaster:
		return m.buildDisaster(ctx, cat, visible)
	case model.Forecast:
		return m.buildForecast(ctx, cat, visible)
	default:
		return nil, nil, fmt.Errorf("no builder for layer kind %q", kind)
	}
}

// tileMetadata resolves metadata for a tile-backed layer: engine cache first,
// then the server, then the static catalog as the hardcoded failover.
func (m *layerManager) tileMetadata(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory) catalog.TileMetadata {
	bounds := m.surface.Bounds()
	if md, ok := m.tiles.get(kind, cat, bounds); ok {
		return md
	}
	md, err := m.api.TileMetadata(ctx, kind, cat, &bounds)
	if err != nil {
		m.log.Warn("tile metadata fetch failed, using catalog defaults",
			"layer", kind.String(), "category", cat.String(), "err", err)
		md, _ = catalog.Lookup(kind, cat)
		return md
	}
	m.tiles.put(kind, cat, bounds, md)
	return md
}

func (m *layerManager) buildTileLayer(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	md := m.tileMetadata(ctx, kind, cat)

	src := sourceID(kind, cat)
	if err := m.surface.AddSource(src, SourceSpec{
		Type:     sourceTypeRaster,
		Tiles:    []string{md.URL},
		TileSize: md.TileSize,
	}); err != nil {
		return nil, nil, fmt.Errorf("add raster source: %w", err)
	}

	lyr := sublayerID(kind, cat, "raster")
	err := m.surface.AddLayer(LayerSpec{
		ID:       lyr,
		SourceID: src,
		Type:     layerTypeRaster,
		Paint:    map[string]any{"raster-opacity": 1.0},
		Layout:   map[string]any{"visibility": visibility(visible)},
	})
	if err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add raster layer: %w", err)
	}
	return []string{lyr}, []string{src}, nil
}

// cityLabels is the static label set for the cities overlay. Regional and
// local bands show the full set; the global band keeps only the largest.
var cityLabels = []Feature{
	{ID: "city-tokyo", Location: model.LatLng{Lat: 35.68, Lon: 139.69}, Properties: map[string]any{"name": "Tokyo", "rank": 1}},
	{ID: "city-delhi", Location: model.LatLng{Lat: 28.61, Lon: 77.21}, Properties: map[string]any{"name": "Delhi", "rank": 1}},
	{ID: "city-shanghai", Location: model.LatLng{Lat: 31.23, Lon: 121.47}, Properties: map[string]any{"name": "Shanghai", "rank": 1}},
	{ID: "city-sao-paulo", Location: model.LatLng{Lat: -23.55, Lon: -46.63}, Properties: map[string]any{"name": "Sao Paulo", "rank": 1}},
	{ID: "city-mexico-city", Location: model.LatLng{Lat: 19.43, Lon: -99.13}, Properties: map[string]any{"name": "Mexico City", "rank": 1}},
	{ID: "city-cairo", Location: model.LatLng{Lat: 30.04, Lon: 31.24}, Properties: map[string]any{"name": "Cairo", "rank": 1}},
	{ID: "city-new-york", Location: model.LatLng{Lat: 40.71, Lon: -74.01}, Properties: map[string]any{"name": "New York", "rank": 1}},
	{ID: "city-london", Location: model.LatLng{Lat: 51.51, Lon: -0.13}, Properties: map[string]any{"name": "London", "rank": 2}},
	{ID: "city-paris", Location: model.LatLng{Lat: 48.86, Lon: 2.35}, Properties: map[string]any{"name": "Paris", "rank": 2}},
	{ID: "city-moscow", Location: model.LatLng{Lat: 55.76, Lon: 37.62}, Properties: map[string]any{"name": "Moscow", "rank": 2}},
	{ID: "city-sydney", Location: model.LatLng{Lat: -33.87, Lon: 151.21}, Properties: map[string]any{"name": "Sydney", "rank": 2}},
	{ID: "city-lagos", Location: model.LatLng{Lat: 6.52, Lon: 3.38}, Properties: map[string]any{"name": "Lagos", "rank": 2}},
	{ID: "city-stockholm", Location: model.LatLng{Lat: 59.33, Lon: 18.07}, Properties: map[string]any{"name": "Stockholm", "rank": 3}},
	{ID: "city-reykjavik", Location: model.LatLng{Lat: 64.15, Lon: -21.94}, Properties: map[string]any{"name": "Reykjavik", "rank": 3}},
}

func (m *layerManager) buildCities(cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	features := cityLabels
	if cat == model.Global {
		features = nil
		for _, f := range cityLabels {
			if f.Properties["rank"] == 1 {
				features = append(features, f)
			}
		}
	}

	src := sourceID(model.Cities, cat)
	if err := m.surface.AddSource(src, SourceSpec{Type: sourceTypeFeature, Features: features}); err != nil {
		return nil, nil, fmt.Errorf("add cities source: %w", err)
	}
	lyr := sublayerID(model.Cities, cat, "labels")
	err := m.surface.AddLayer(LayerSpec{
		ID:       lyr,
		SourceID: src,
		Type:     layerTypeSymbol,
		Layout: map[string]any{
			"visibility": visibility(visible),
			"text-field": "name",
		},
		Paint: map[string]any{"text-color": "#ffffff"},
	})
	if err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add cities layer: %w", err)
	}
	return []string{lyr}, []string{src}, nil
}

func (m *layerManager) buildHurricane(ctx context.Context, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	storms, err := m.api.Hurricanes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch hurricanes: %w", err)
	}

	points := make([]Feature, 0, len(storms))
	tracks := make([]Feature, 0, len(storms))
	for _, s := range storms {
		points = append(points, Feature{
			ID:       "storm-" + s.ID,
			Location: model.LatLng{Lat: s.Lat, Lon: s.Lon},
			Properties: map[string]any{
				"name":     s.Name,
				"category": s.Category,
				"windMph":  s.WindMph,
			},
		})
		for _, trk := range []struct {
			suffix string
			pts    []weather.TrackPoint
		}{{"history", s.History}, {"forecast", s.Forecast}} {
			if len(trk.pts) < 2 {
				continue
			}
			line := make([]model.LatLng, 0, len(trk.pts))
			for _, p := range trk.pts {
				line = append(line, model.LatLng{Lat: p.Lat, Lon: p.Lon})
			}
			tracks = append(tracks, Feature{
				ID:         "storm-" + s.ID + "-" + trk.suffix,
				Line:       line,
				Properties: map[string]any{"kind": trk.suffix},
			})
		}
	}

	srcPoints := sourceID(model.Hurricane, cat)
	srcTracks := srcPoints + "-tracks"
	if err := m.surface.AddSource(srcPoints, SourceSpec{Type: sourceTypeFeature, Features: points}); err != nil {
		return nil, nil, fmt.Errorf("add storm source: %w", err)
	}
	if err := m.surface.AddSource(srcTracks, SourceSpec{Type: sourceTypeFeature, Features: tracks}); err != nil {
		_ = m.surface.RemoveSource(srcPoints)
		return nil, nil, fmt.Errorf("add track source: %w", err)
	}

	vis := map[string]any{"visibility": visibility(visible)}
	sublayers := []string{
		sublayerID(model.Hurricane, cat, "tracks"),
		sublayerID(model.Hurricane, cat, "points"),
		sublayerID(model.Hurricane, cat, "labels"),
	}
	specs := []LayerSpec{
		{ID: sublayers[0], SourceID: srcTracks, Type: layerTypeLine,
			Paint: map[string]any{"line-color": "#ff4444", "line-width": 2.0}, Layout: vis},
		{ID: sublayers[1], SourceID: srcPoints, Type: layerTypeCircle,
			Paint: map[string]any{"circle-color": "#ff0000", "circle-radius": 8.0}, Layout: vis},
		{ID: sublayers[2], SourceID: srcPoints, Type: layerTypeSymbol,
			Layout: map[string]any{"visibility": visibility(visible), "text-field": "name"}},
	}
	for i, spec := range specs {
		if err := m.surface.AddLayer(spec); err != nil {
			for _, id := range sublayers[:i] {
				_ = m.surface.RemoveLayer(id)
			}
			_ = m.surface.RemoveSource(srcTracks)
			_ = m.surface.RemoveSource(srcPoints)
			return nil, nil, fmt.Errorf("add storm layer %s: %w", spec.ID, err)
		}
	}
	return sublayers, []string{srcPoints, srcTracks}, nil
}

func (m *layerManager) buildWildfire(ctx context.Context, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	fires, err := m.api.Wildfires(ctx, 1)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch wildfires: %w", err)
	}

	features := make([]Feature, 0, len(fires))
	for _, f := range fires {
		features = append(features, Feature{
			ID:       f.ID,
			Location: model.LatLng{Lat: f.Lat, Lon: f.Lon},
			Properties: map[string]any{
				"brightness": f.Brightness,
				"confidence": f.Confidence,
			},
		})
	}

	src := sourceID(model.Wildfire, cat)
	if err := m.surface.AddSource(src, SourceSpec{Type: sourceTypeFeature, Features: features}); err != nil {
		return nil, nil, fmt.Errorf("add wildfire source: %w", err)
	}
	lyr := sublayerID(model.Wildfire, cat, "points")
	err = m.surface.AddLayer(LayerSpec{
		ID:       lyr,
		SourceID: src,
		Type:     layerTypeCircle,
		Paint:    map[string]any{"circle-color": "#ff8800", "circle-radius": 4.0},
		Layout:   map[string]any{"visibility": visibility(visible)},
	})
	if err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add wildfire layer: %w", err)
	}
	return []string{lyr}, []string{src}, nil
}

func (m *layerManager) buildDisaster(ctx context.Context, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	events, err := m.api.Disasters(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch disasters: %w", err)
	}

	features := make([]Feature, 0, len(events))
	for _, ev := range events {
		if ev.Lat == nil || ev.Lon == nil {
			continue
		}
		features = append(features, Feature{
			ID:       ev.ID,
			Location: model.LatLng{Lat: *ev.Lat, Lon: *ev.Lon},
			Properties: map[string]any{
				"title":    ev.Title,
				"category": ev.Category,
			},
		})
	}

	src := sourceID(model.Disaster, cat)
	if err := m.surface.AddSource(src, SourceSpec{Type: sourceTypeFeature, Features: features}); err != nil {
		return nil, nil, fmt.Errorf("add disaster source: %w", err)
	}

	vis := map[string]any{"visibility": visibility(visible)}
	points := sublayerID(model.Disaster, cat, "points")
	labels := sublayerID(model.Disaster, cat, "labels")
	if err := m.surface.AddLayer(LayerSpec{
		ID: points, SourceID: src, Type: layerTypeCircle,
		Paint:  map[string]any{"circle-color": "#aa00ff", "circle-radius": 6.0},
		Layout: vis,
	}); err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add disaster layer: %w", err)
	}
	if err := m.surface.AddLayer(LayerSpec{
		ID: labels, SourceID: src, Type: layerTypeSymbol,
		Layout: map[string]any{"visibility": visibility(visible), "text-field": "title"},
	}); err != nil {
		_ = m.surface.RemoveLayer(points)
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add disaster labels: %w", err)
	}
	return []string{points, labels}, []string{src}, nil
}

func (m *layerManager) buildForecast(ctx context.Context, cat model.ZoomCategory, visible bool) ([]string, []string, error) {
	center := m.surface.Center()
	fc, err := m.api.Forecast(ctx, center.Lat, center.Lon)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch forecast: %w", err)
	}

	features := make([]Feature, 0, len(fc.Points))
	for i, p := range fc.Points {
		features = append(features, Feature{
			ID:       "forecast-" + strconv.Itoa(i),
			Location: center,
			Properties: map[string]any{
				"timestampMs":  p.TimestampMs,
				"temperatureC": p.TemperatureC,
			},
		})
	}

	src := sourceID(model.Forecast, cat)
	if err := m.surface.AddSource(src, SourceSpec{Type: sourceTypeFeature, Features: features}); err != nil {
		return nil, nil, fmt.Errorf("add forecast source: %w", err)
	}
	lyr := sublayerID(model.Forecast, cat, "points")
	err = m.surface.AddLayer(LayerSpec{
		ID:       lyr,
		SourceID: src,
		Type:     layerTypeSymbol,
		Layout:   map[string]any{"visibility": visibility(visible), "text-field": "temperatureC"},
	})
	if err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add forecast layer: %w", err)
	}
	return []string{lyr}, []string{src}, nil
}

// buildPlaceholder renders a single-region stand-in used when the temperature
// builder fails, so the layer is degraded rather than silently absent.
func (m *layerManager) buildPlaceholder(kind model.LayerKind, visible bool) ([]string, []string, error) {
	center := m.surface.Center()
	src := fmt.Sprintf("src-%s-placeholder", kind)
	if err := m.surface.AddSource(src, SourceSpec{
		Type: sourceTypeFeature,
		Features: []Feature{{
			ID:         fmt.Sprintf("%s-placeholder", kind),
			Location:   center,
			Properties: map[string]any{"placeholder": true},
		}},
	}); err != nil {
		return nil, nil, fmt.Errorf("add placeholder source: %w", err)
	}
	lyr := fmt.Sprintf("lyr-%s-placeholder", kind)
	err := m.surface.AddLayer(LayerSpec{
		ID:       lyr,
		SourceID: src,
		Type:     layerTypeCircle,
		Paint:    map[string]any{"circle-color": "#888888", "circle-radius": 40.0, "circle-opacity": 0.3},
		Layout:   map[string]any{"visibility": visibility(visible)},
	})
	if err != nil {
		_ = m.surface.RemoveSource(src)
		return nil, nil, fmt.Errorf("add placeholder layer: %w", err)
	}
	return []string{lyr}, []string{src}, nil
}
