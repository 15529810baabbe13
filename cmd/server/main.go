package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/atmoscope/atmoscope/internal/api"
	"github.com/atmoscope/atmoscope/internal/cache"
	"github.com/atmoscope/atmoscope/internal/cache/memstore"
	"github.com/atmoscope/atmoscope/internal/cache/redisstore"
	"github.com/atmoscope/atmoscope/internal/core/config"
	"github.com/atmoscope/atmoscope/internal/core/health"
	"github.com/atmoscope/atmoscope/internal/core/httpclient"
	"github.com/atmoscope/atmoscope/internal/core/server"
	"github.com/atmoscope/atmoscope/internal/invalidation/kafkaconsumer"
	"github.com/atmoscope/atmoscope/internal/logger"
	"github.com/atmoscope/atmoscope/internal/metrics"
	"github.com/atmoscope/atmoscope/internal/observability"
	"github.com/atmoscope/atmoscope/internal/weather"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting weather cache server",
		"addr", cfg.Addr,
		"version", Version,
		"cache_driver", cfg.CacheDriver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, deps, err := buildStore(ctx, cfg)
	if err != nil {
		appLog.Error("cache store setup failed", "err", err)
		return 1
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLog.Warn("cache store close failed", "err", err)
		}
	}()

	feeds := weather.NewFeeds(httpclient.NewOutbound(), weather.FeedsConfig{
		OpenWeatherURL: cfg.OpenWeatherURL,
		OpenWeatherKey: cfg.OpenWeatherKey,
		HurricaneURL:   cfg.HurricaneURL,
		WildfireURL:    cfg.WildfireURL,
		FirmsMapKey:    cfg.WildfireMapKey,
		DisasterURL:    cfg.DisasterURL,
		Timeout:        cfg.UpstreamTimeout,
	})
	svc := weather.NewService(store, feeds, appLog, weather.ServiceConfig{
		TTLDefault:   cfg.CacheTTL,
		TTLTiles:     cfg.CacheTTLTiles,
		TTLOverrides: cfg.CacheTTLOvr,
		OpTimeout:    cfg.CacheOpTimeout,
		TileAPIKey:   cfg.OpenWeatherKey,
	})

	if cfg.Invalidation.Enabled {
		consumer := kafkaconsumer.New(kafkaconsumer.FromEnv(), appLog, store)
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				appLog.Error("invalidation consumer exited", "err", err)
			}
		}()
	}

	p := metrics.Init()
	handlers := api.New(svc, appLog)

	if err := server.Run(ctx, cfg, appLog, handlers, p.Handler(), deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// buildStore selects the cache backend. Redis participates in the readiness
// probe; the in-process store has nothing to probe.
func buildStore(ctx context.Context, cfg config.Config) (cache.Store, map[string]health.Pinger, error) {
	switch cfg.CacheDriver {
	case "redis":
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		client, err := redisstore.New(dialCtx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return client, map[string]health.Pinger{"redis": client}, nil
	default:
		store, err := memstore.New(cfg.CacheCapacity)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil
	}
}
