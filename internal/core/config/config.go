package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// weather data cache
	CacheDriver    string // "memory" or "redis"
	CacheCapacity  int
	CacheOpTimeout time.Duration
	CacheTTL       time.Duration
	CacheTTLTiles  time.Duration
	CacheTTLOvr    map[string]time.Duration
	RedisAddr      string

	// upstream feeds
	OpenWeatherKey  string
	OpenWeatherURL  string
	HurricaneURL    string
	WildfireURL     string
	WildfireMapKey  string
	DisasterURL     string
	UpstreamTimeout time.Duration

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	ttl := getduration("CACHE_TTL_DEFAULT", 30*time.Minute)

	return Config{
		Addr:     getenv("ADDR", ":8085"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		CacheDriver:    getenv("CACHE_DRIVER", "memory"),
		CacheCapacity:  getint("CACHE_CAPACITY", 2048),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		CacheTTL:       ttl,
		CacheTTLTiles:  getduration("CACHE_TTL_TILES", 10*time.Minute),
		CacheTTLOvr:    parseDurationMap(getenv("CACHE_TTL_OVERRIDES", "")),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),

		OpenWeatherKey:  getenv("OPENWEATHER_API_KEY", ""),
		OpenWeatherURL:  getenv("OPENWEATHER_URL", "https://api.openweathermap.org/data/2.5"),
		HurricaneURL:    getenv("HURRICANE_URL", "https://www.nhc.noaa.gov/CurrentStorms.json"),
		WildfireURL:     getenv("WILDFIRE_URL", "https://firms.modaps.eosdis.nasa.gov/api/area/csv"),
		WildfireMapKey:  getenv("FIRMS_MAP_KEY", ""),
		DisasterURL:     getenv("DISASTER_URL", "https://eonet.gsfc.nasa.gov/api/v3/events"),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 10*time.Second),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "weather-feed-updates"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "weather-cache-invalidator"),
		},
	}
}

// EngineConfig holds the tunables of the client-side map engine. The viewport
// thresholds are heuristics, not contracts, so they stay configurable.
type EngineConfig struct {
	ZoomDelta      float64
	CenterDelta    float64
	ZoomDebounce   time.Duration
	SettleDelay    time.Duration
	PrefetchPacing time.Duration
	PrefetchExpand float64
	TileCacheSize  int
}

func EngineFromEnv() EngineConfig {
	return EngineConfig{
		ZoomDelta:      getfloat("VIEWPORT_ZOOM_DELTA", 0.5),
		CenterDelta:    getfloat("VIEWPORT_CENTER_DELTA", 0.2),
		ZoomDebounce:   getduration("ZOOM_DEBOUNCE", 300*time.Millisecond),
		SettleDelay:    getduration("TRANSITION_SETTLE_DELAY", time.Second),
		PrefetchPacing: getduration("PREFETCH_PACING", 100*time.Millisecond),
		PrefetchExpand: getfloat("PREFETCH_EXPAND", 0.2),
		TileCacheSize:  getint("TILE_CACHE_SIZE", 512),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "current=5m,hurricane=30s" into map
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	parts := strings.SplitSeq(s, ",")
	for p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
