package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/atmoscope/atmoscope/internal/observability"
)

// Feeds fetches raw payloads from the third-party weather APIs. It knows
// nothing about normalization or caching; it returns bytes or an
// UpstreamError.
type Feeds struct {
	http    *http.Client
	timeout time.Duration

	owmURL       string
	owmKey       string
	hurricaneURL string
	wildfireURL  string
	firmsKey     string
	disasterURL  string
}

type FeedsConfig struct {
	OpenWeatherURL string
	OpenWeatherKey string
	HurricaneURL   string
	WildfireURL    string
	FirmsMapKey    string
	DisasterURL    string
	Timeout        time.Duration
}

func NewFeeds(client *http.Client, cfg FeedsConfig) *Feeds {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Feeds{
		http:         client,
		timeout:      cfg.Timeout,
		owmURL:       cfg.OpenWeatherURL,
		owmKey:       cfg.OpenWeatherKey,
		hurricaneURL: cfg.HurricaneURL,
		wildfireURL:  cfg.WildfireURL,
		firmsKey:     cfg.FirmsMapKey,
		disasterURL:  cfg.DisasterURL,
	}
}

func (f *Feeds) FetchCurrent(ctx context.Context, lat, lon float64) ([]byte, error) {
	q := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"units": {"metric"},
		"appid": {f.owmKey},
	}
	return f.get(ctx, "current", f.owmURL+"/weather?"+q.Encode())
}

func (f *Feeds) FetchForecast(ctx context.Context, lat, lon float64) ([]byte, error) {
	q := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"units": {"metric"},
		"appid": {f.owmKey},
	}
	return f.get(ctx, "forecast", f.owmURL+"/forecast?"+q.Encode())
}

func (f *Feeds) FetchHurricanes(ctx context.Context) ([]byte, error) {
	return f.get(ctx, "hurricane", f.hurricaneURL)
}

func (f *Feeds) FetchWildfires(ctx context.Context, days int) ([]byte, error) {
	if days <= 0 {
		days = 1
	}
	u := fmt.Sprintf("%s/%s/VIIRS_SNPP_NRT/world/%d", f.wildfireURL, f.firmsKey, days)
	return f.get(ctx, "wildfire", u)
}

func (f *Feeds) FetchDisasters(ctx context.Context) ([]byte, error) {
	return f.get(ctx, "disaster", f.disasterURL+"?status=open")
}

func (f *Feeds) get(ctx context.Context, feed, rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &UpstreamError{Feed: feed, Err: err}
	}
	req.Header.Set("Accept", "application/json, text/csv;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.http.Do(req)
	observability.ObserveUpstreamLatency(feed, time.Since(start).Seconds())
	if err != nil {
		return nil, &UpstreamError{Feed: feed, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// drain a little for connection reuse, then report the status
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Feed: feed, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{Feed: feed, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
