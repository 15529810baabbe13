package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/atmoscope/atmoscope/internal/cache"
	"github.com/atmoscope/atmoscope/internal/cache/fingerprint"
	"github.com/atmoscope/atmoscope/internal/catalog"
	"github.com/atmoscope/atmoscope/internal/core/model"
	"github.com/atmoscope/atmoscope/internal/observability"
)

// Fetcher is the upstream surface the service depends on; tests substitute a
// counting double.
type Fetcher interface {
	FetchCurrent(ctx context.Context, lat, lon float64) ([]byte, error)
	FetchForecast(ctx context.Context, lat, lon float64) ([]byte, error)
	FetchHurricanes(ctx context.Context) ([]byte, error)
	FetchWildfires(ctx context.Context, days int) ([]byte, error)
	FetchDisasters(ctx context.Context) ([]byte, error)
}

// Service is the normalized weather data cache: fingerprint lookup first,
// upstream fetch + normalize on miss, store only the normalized payload.
type Service struct {
	store cache.Store
	feeds Fetcher
	log   *slog.Logger

	ttlDefault time.Duration
	ttlTiles   time.Duration
	ttlOvr     map[string]time.Duration
	opTimeout  time.Duration
	tileKey    string
}

type ServiceConfig struct {
	TTLDefault   time.Duration
	TTLTiles     time.Duration
	TTLOverrides map[string]time.Duration
	OpTimeout    time.Duration
	TileAPIKey   string
}

func NewService(store cache.Store, feeds Fetcher, logger *slog.Logger, cfg ServiceConfig) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.TTLDefault <= 0 {
		cfg.TTLDefault = 30 * time.Minute
	}
	if cfg.TTLTiles <= 0 {
		cfg.TTLTiles = 10 * time.Minute
	}
	return &Service{
		store:      store,
		feeds:      feeds,
		log:        logger,
		ttlDefault: cfg.TTLDefault,
		ttlTiles:   cfg.TTLTiles,
		ttlOvr:     cfg.TTLOverrides,
		opTimeout:  cfg.OpTimeout,
		tileKey:    cfg.TileAPIKey,
	}
}

// Current returns current conditions for a coordinate. Upstream failure never
// propagates: the caller gets a fallback-marked placeholder instead.
func (s *Service) Current(ctx context.Context, lat, lon float64) CurrentWeather {
	out, err := cachedFetch(ctx, s, "current", fingerprint.Current(lat, lon),
		func(ctx context.Context) ([]byte, error) { return s.feeds.FetchCurrent(ctx, lat, lon) },
		NormalizeCurrent)
	if err != nil {
		s.log.Warn("current weather unavailable, serving fallback", "lat", lat, "lon", lon, "err", err)
		observability.IncFallback("current")
		return fallbackCurrent(lat, lon)
	}
	return out
}

func (s *Service) Forecast(ctx context.Context, lat, lon float64) (Forecast, error) {
	return cachedFetch(ctx, s, "forecast", fingerprint.Forecast(lat, lon),
		func(ctx context.Context) ([]byte, error) { return s.feeds.FetchForecast(ctx, lat, lon) },
		NormalizeForecast)
}

func (s *Service) Hurricanes(ctx context.Context) ([]Hurricane, error) {
	return cachedFetch(ctx, s, "hurricane", fingerprint.Hurricanes(),
		s.feeds.FetchHurricanes, NormalizeHurricanes)
}

func (s *Service) Wildfires(ctx context.Context, days int) ([]Wildfire, error) {
	if days <= 0 {
		days = 1
	}
	return cachedFetch(ctx, s, "wildfire", fingerprint.Wildfires(days),
		func(ctx context.Context) ([]byte, error) { return s.feeds.FetchWildfires(ctx, days) },
		NormalizeWildfires)
}

func (s *Service) Disasters(ctx context.Context) ([]Disaster, error) {
	return cachedFetch(ctx, s, "disaster", fingerprint.Disasters(),
		s.feeds.FetchDisasters, NormalizeDisasters)
}

// TileMetadata resolves tile metadata for a tile-backed kind at a category.
// The resolution catalog is the authority; results are cached on the shorter
// tile TTL because templates embed a rotating API key.
func (s *Service) TileMetadata(ctx context.Context, kind model.LayerKind, cat model.ZoomCategory, bounds *model.Bounds) (catalog.TileMetadata, error) {
	if !kind.TileBacked() {
		return catalog.TileMetadata{}, fmt.Errorf("layer kind %q has no tile metadata", kind)
	}

	key := fingerprint.TileMetadata(kind, cat, bounds)
	if raw, ok := s.cacheGet(ctx, key); ok {
		var md catalog.TileMetadata
		if err := json.Unmarshal(raw, &md); err == nil {
			observability.IncCacheHit("tiles")
			return md, nil
		}
		_ = s.cacheDel(ctx, key)
	}
	observability.IncCacheMiss("tiles")

	md, err := catalog.Lookup(kind, cat)
	if err != nil {
		return catalog.TileMetadata{}, err
	}
	md = catalog.WithAPIKey(md, s.tileKey)
	md.TileCoverage = bounds
	md.Timestamp = clock.Now().UnixMilli()

	if buf, err := json.Marshal(md); err == nil {
		s.cacheSet(ctx, key, buf, s.ttlFor("tiles"))
	}
	return md, nil
}

// cachedFetch is the shared miss path: fetch raw, normalize, store the
// normalized bytes atomically, return the value. The store never sees a raw
// upstream payload.
func cachedFetch[T any](
	ctx context.Context,
	s *Service,
	kind, key string,
	fetch func(context.Context) ([]byte, error),
	normalize func([]byte) (T, error),
) (T, error) {
	var zero T

	if raw, ok := s.cacheGet(ctx, key); ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			observability.IncCacheHit(kind)
			return v, nil
		}
		// entry no longer decodes into the canonical shape; drop it
		_ = s.cacheDel(ctx, key)
	}
	observability.IncCacheMiss(kind)

	raw, err := fetch(ctx)
	if err != nil {
		return zero, err
	}
	v, err := normalize(raw)
	if err != nil {
		return zero, err
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return zero, fmt.Errorf("marshal %s: %w", kind, err)
	}
	s.cacheSet(ctx, key, buf, s.ttlFor(kind))
	return v, nil
}

func (s *Service) ttlFor(kind string) time.Duration {
	if d, ok := s.ttlOvr[kind]; ok {
		return d
	}
	if kind == "tiles" {
		return s.ttlTiles
	}
	return s.ttlDefault
}

func (s *Service) withOpTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// cacheGet treats store errors as misses so a degraded store never blocks the
// fetch path.
func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := s.withOpTimeout(ctx)
	defer cancel()
	raw, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache get error, treating as miss", "key", key, "err", err)
		return nil, false
	}
	return raw, ok
}

func (s *Service) cacheSet(ctx context.Context, key string, val []byte, ttl time.Duration) {
	ctx, cancel := s.withOpTimeout(ctx)
	defer cancel()
	if err := s.store.Set(ctx, key, val, ttl); err != nil {
		s.log.Warn("cache set error", "key", key, "err", err)
	}
}

func (s *Service) cacheDel(ctx context.Context, key string) error {
	ctx, cancel := s.withOpTimeout(ctx)
	defer cancel()
	return s.store.Del(ctx, key)
}

// fallbackCurrent synthesizes a clearly-marked deterministic placeholder for a
// coordinate so the UI always has something to render.
func fallbackCurrent(lat, lon float64) CurrentWeather {
	return CurrentWeather{
		Type:         TypeCurrentWeather,
		Name:         fmt.Sprintf("%.2f, %.2f", lat, lon),
		Lat:          lat,
		Lon:          lon,
		Condition:    Condition{Code: 800, Description: "data unavailable", Icon: "01d"},
		TemperatureC: 15,
		FeelsLikeC:   15,
		HumidityPct:  50,
		PressureHPa:  1013,
		VisibilityM:  10000,
		ObservedAtMs: clock.Now().UnixMilli(),
		Fallback:     true,
	}
}
