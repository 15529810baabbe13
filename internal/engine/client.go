package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/httpclient"
	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/weather"
)

// WeatherAPI is the slice of the weather server the engine consumes.
type WeatherAPI interface {
	TileMetadata(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, bounds *model.Bounds) (catalog.TileMetadata, error)
	Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error)
	Forecast(ctx context.Context, lat, lon float64) (weather.Forecast, error)
	Hurricanes(ctx context.Context) ([]weather.Hurricane, error)
	Wildfires(ctx context.Context, days int) ([]weather.Wildfire, error)
	Disasters(ctx context.Context) ([]weather.Disaster, error)
}

// Client is the HTTP implementation of WeatherAPI against the server surface.
type Client struct {
	base string
	http *http.Client
}

func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = httpclient.NewOutbound()
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc}
}

type tilesRequest struct {
	Kind     string        `json:"layerType"`
	Category string        `json:"zoomCategory"`
	Bounds   *model.Bounds `json:"bounds,omitempty"`
}

type coordRequest struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

type wildfireRequest struct {
	Days int `json:"days"`
}

func (c *Client) TileMetadata(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, bounds *model.Bounds) (catalog.TileMetadata, error) {
	var out catalog.TileMetadata
	err := c.post(ctx, "/api/weather/tiles", tilesRequest{Kind: kind.String(), Category: cat.String(), Bounds: bounds}, &out)
	return out, err
}

func (c *Client) Current(ctx context.Context, lat, lon float64) (weather.CurrentWeather, error) {
	var out weather.CurrentWeather
	err := c.post(ctx, "/api/weather/current", coordRequest{Lat: lat, Lon: lon}, &out)
	return out, err
}

func (c *Client) Forecast(ctx context.Context, lat, lon float64) (weather.Forecast, error) {
	var out weather.Forecast
	err := c.post(ctx, "/api/weather/forecast", coordRequest{Lat: lat, Lon: lon}, &out)
	return out, err
}

func (c *Client) Hurricanes(ctx context.Context) ([]weather.Hurricane, error) {
	var out []weather.Hurricane
	err := c.get(ctx, "/api/weather/hurricane", &out)
	return out, err
}

func (c *Client) Wildfires(ctx context.Context, days int) ([]weather.Wildfire, error) {
	var out []weather.Wildfire
	err := c.post(ctx, "/api/weather/wildfire", wildfireRequest{Days: days}, &out)
	return out, err
}

func (c *Client) Disasters(ctx context.Context) ([]weather.Disaster, error) {
	var out []weather.Disaster
	err := c.post(ctx, "/api/weather/disasters", struct{}{}, &out)
	return out, err
}

func (c *Client) post(ctx context.Context, path string, body, dst any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, dst)
}

func (c *Client) get(ctx context.Context, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	return c.do(req, dst)
}

func (c *Client) do(req *http.Request, dst any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &weather.UpstreamError{Feed: req.URL.Path, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var envelope struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&envelope)
		err := fmt.Errorf("%s", envelope.Error)
		if envelope.Error == "" {
			err = fmt.Errorf("status %d", resp.StatusCode)
		}
		return &weather.UpstreamError{Feed: req.URL.Path, Status: resp.StatusCode, Err: err}
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
