package main

import (
	"fmt"
	"sync"

	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/engine"
)

// consoleSurface is a MapSurface that renders to stdout. It keeps just enough
// state for the engine's existence checks and camera reads.
type consoleSurface struct {
	mu      sync.Mutex
	sources map[string]engine.SourceSpec
	layers  map[string]engine.LayerSpec

	zoom   float64
	bounds model.Bounds
}

func newConsoleSurface() *consoleSurface {
	return &consoleSurface{
		sources: make(map[string]engine.SourceSpec),
		layers:  make(map[string]engine.LayerSpec),
		zoom:    2,
		bounds:  model.Bounds{West: -170, South: -60, East: 170, North: 75},
	}
}

func (s *consoleSurface) AddSource(id string, spec engine.SourceSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; ok {
		return fmt.Errorf("source %q already exists", id)
	}
	s.sources[id] = spec
	if spec.Type == "raster" {
		fmt.Printf("  + source %-48s tiles=%v\n", id, spec.Tiles)
	} else {
		fmt.Printf("  + source %-48s features=%d\n", id, len(spec.Features))
	}
	return nil
}

func (s *consoleSurface) AddLayer(spec engine.LayerSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[spec.ID]; ok {
		return fmt.Errorf("layer %q already exists", spec.ID)
	}
	if _, ok := s.sources[spec.SourceID]; !ok {
		return fmt.Errorf("layer %q references missing source %q", spec.ID, spec.SourceID)
	}
	s.layers[spec.ID] = spec
	fmt.Printf("  + layer  %-48s type=%s\n", spec.ID, spec.Type)
	return nil
}

func (s *consoleSurface) RemoveLayer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[id]; !ok {
		return fmt.Errorf("layer %q does not exist", id)
	}
	delete(s.layers, id)
	fmt.Printf("  - layer  %s\n", id)
	return nil
}

func (s *consoleSurface) RemoveSource(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; !ok {
		return fmt.Errorf("source %q does not exist", id)
	}
	delete(s.sources, id)
	fmt.Printf("  - source %s\n", id)
	return nil
}

func (s *consoleSurface) HasLayer(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.layers[id]
	return ok
}

func (s *consoleSurface) SetLayoutProperty(layerID, prop string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[layerID]; !ok {
		return fmt.Errorf("layer %q does not exist", layerID)
	}
	fmt.Printf("  ~ layout %s %s=%v\n", layerID, prop, value)
	return nil
}

func (s *consoleSurface) SetPaintProperty(layerID, prop string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.layers[layerID]; !ok {
		return fmt.Errorf("layer %q does not exist", layerID)
	}
	fmt.Printf("  ~ paint  %s %s=%v\n", layerID, prop, value)
	return nil
}

func (s *consoleSurface) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *consoleSurface) Bounds() model.Bounds {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds
}

func (s *consoleSurface) Center() model.LatLng {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bounds.Center()
}

func (s *consoleSurface) setCamera(zoom float64, b model.Bounds) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = zoom
	s.bounds = b
}
