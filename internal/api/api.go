// Package api exposes the weather data service over HTTP. All responses are
// JSON; failures carry an {"error": "..."} body with a non-2xx status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/observability"
	"github.com/atmoscope/atmoscope/internal/weather"
)

// WeatherService is the slice of the cached weather service the handlers need.
type WeatherService interface {
	Current(ctx context.Context, lat, lon float64) weather.CurrentWeather
	Forecast(ctx context.Context, lat, lon float64) (weather.Forecast, error)
	Hurricanes(ctx context.Context) ([]weather.Hurricane, error)
	Wildfires(ctx context.Context, days int) ([]weather.Wildfire, error)
	Disasters(ctx context.Context) ([]weather.Disaster, error)
	TileMetadata(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, bounds *model.Bounds) (catalog.TileMetadata, error)
}

type Handlers struct {
	svc WeatherService
	log *slog.Logger
}

func New(svc WeatherService, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, log: logger}
}

// Routes mounts the weather endpoints on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Post("/api/weather/tiles", h.instrument("/api/weather/tiles", h.tiles))
	r.Post("/api/weather/current", h.instrument("/api/weather/current", h.current))
	r.Post("/api/weather/forecast", h.instrument("/api/weather/forecast", h.forecast))
	r.Post("/api/weather/wildfire", h.instrument("/api/weather/wildfire", h.wildfire))
	r.Post("/api/weather/disasters", h.instrument("/api/weather/disasters", h.disasters))
	r.Get("/api/weather/hurricane", h.instrument("/api/weather/hurricane", h.hurricane))
}

func (h *Handlers) instrument(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		fn(sw, r)
		observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

type coordRequest struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type tilesRequest struct {
	Kind     string        `json:"layerType"`
	Category string        `json:"zoomCategory"`
	Zoom     *float64      `json:"zoom"`
	Bounds   *model.Bounds `json:"bounds"`
}

type wildfireRequest struct {
	Days int `json:"days"`
}

func (h *Handlers) current(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Current(r.Context(), req.Lat, req.Lon))
}

func (h *Handlers) forecast(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCoords(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	out, err := h.svc.Forecast(r.Context(), req.Lat, req.Lon)
	if err != nil {
		h.upstreamError(w, "forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) hurricane(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Hurricanes(r.Context())
	if err != nil {
		h.upstreamError(w, "hurricane", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) wildfire(w http.ResponseWriter, r *http.Request) {
	var req wildfireRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Days < 0 || req.Days > 10 {
		writeError(w, http.StatusBadRequest, errors.New("days must be in [0,10]"))
		return
	}
	out, err := h.svc.Wildfires(r.Context(), req.Days)
	if err != nil {
		h.upstreamError(w, "wildfire", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) disasters(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.Disasters(r.Context())
	if err != nil {
		h.upstreamError(w, "disaster", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) tiles(w http.ResponseWriter, r *http.Request) {
	var req tilesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	kind, err := model.ParseLayerKind(strings.TrimSpace(req.Kind))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var cat model.ZoomCategory
	switch {
	case req.Zoom != nil:
		cat = model.CategoryForZoom(*req.Zoom)
	case req.Category != "":
		cat, err = model.ParseZoomCategory(strings.TrimSpace(req.Category))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, errors.New("either zoom or category is required"))
		return
	}

	if req.Bounds != nil {
		if err := req.Bounds.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid bounds: %w", err))
			return
		}
	}

	out, err := h.svc.TileMetadata(r.Context(), kind, cat, req.Bounds)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) upstreamError(w http.ResponseWriter, feed string, err error) {
	h.log.Warn("upstream feed failed", "feed", feed, "err", err)
	status := http.StatusInternalServerError
	if weather.IsUpstream(err) || errors.Is(err, weather.ErrMalformed) {
		status = http.StatusBadGateway
	}
	writeError(w, status, fmt.Errorf("%s data unavailable", feed))
}

func decodeCoords(r *http.Request) (coordRequest, error) {
	var req coordRequest
	if err := decodeBody(r, &req); err != nil {
		return coordRequest{}, err
	}
	if req.Lat < -90 || req.Lat > 90 {
		return coordRequest{}, errors.New("lat must be in [-90,90]")
	}
	if req.Lon < -180 || req.Lon > 180 {
		return coordRequest{}, errors.New("lon must be in [-180,180]")
	}
	return req, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
