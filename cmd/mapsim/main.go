// mapsim drives the map engine through a scripted pan-and-zoom session
// against a live server, printing every renderer call. It exists to exercise
// layer lifecycle, crossfade transitions, and prefetch against real payloads
// without a browser.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atmoscope/atmoscope/internal/core/config"
	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/engine"
	"github.com/atmoscope/atmoscope/internal/logger"
)

func main() {
	baseURL := flag.String("server", "http://localhost:8085", "weather server base URL")
	layersFlag := flag.String("layers", "temperature,hurricane", "comma-separated layers to show")
	stepDelay := flag.Duration("step-delay", 2*time.Second, "pause between scripted camera moves")
	flag.Parse()

	zl := logger.Build(logger.Config{Level: "debug", Console: true, Component: "mapsim"}, os.Stdout)
	log := logger.NewSlog(&zl)

	surface := newConsoleSurface()
	client := engine.NewClient(*baseURL, nil)

	eng, err := engine.New(surface, client, engine.Options{
		Logger: log,
		Config: config.EngineFromEnv(),
	})
	if err != nil {
		log.Error("engine setup failed", "err", err)
		os.Exit(1)
	}
	defer eng.Close()

	ctx := context.Background()
	for _, name := range strings.Split(*layersFlag, ",") {
		kind, err := model.ParseLayerKind(strings.TrimSpace(name))
		if err != nil {
			log.Error("unknown layer", "layer", name, "err", err)
			os.Exit(1)
		}
		if err := eng.ShowLayer(ctx, kind); err != nil {
			log.Error("show layer failed", "layer", kind.String(), "err", err)
		}
	}

	// scripted session: world view, zoom into northern Europe, pan along the
	// coast, then back out
	script := []struct {
		note string
		zoom float64
		b    model.Bounds
	}{
		{"world view", 2, model.Bounds{West: -170, South: -60, East: 170, North: 75}},
		{"zoom to europe", 5, model.Bounds{West: -10, South: 45, East: 30, North: 60}},
		{"zoom to stockholm", 10, model.Bounds{West: 17.5, South: 59, East: 18.5, North: 59.6}},
		{"pan to helsinki", 10, model.Bounds{West: 24.5, South: 59.9, East: 25.5, North: 60.4}},
		{"zoom back out", 4, model.Bounds{West: -10, South: 40, East: 40, North: 65}},
	}

	for _, step := range script {
		fmt.Printf("\n== %s (zoom %.1f) ==\n", step.note, step.zoom)
		prevZoom := surface.Zoom()
		surface.setCamera(step.zoom, step.b)
		eng.OnMoveEnd()
		if step.zoom != prevZoom {
			eng.OnZoomEnd()
		}
		time.Sleep(*stepDelay)
	}

	fmt.Printf("\nfinal category: %s\n", eng.Category())
}
