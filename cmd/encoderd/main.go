package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/behaviorsense/encoderd/api"
	"github.com/behaviorsense/encoderd/config"
	"github.com/behaviorsense/encoderd/core/cache"
	"github.com/behaviorsense/encoderd/core/logger"
	"github.com/behaviorsense/encoderd/core/metrics"
	"github.com/behaviorsense/encoderd/core/server"
	"github.com/behaviorsense/encoderd/encoder"
	"github.com/behaviorsense/encoderd/pkg/ratelimiter"
)

// rateLimitConfig holds rate limiting configuration with environment
// variable support.
type rateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED" envDefault:"false"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY" envDefault:"300"`
	RefillRate     int           `env:"RATE_LIMIT_REFILL_RATE" envDefault:"100"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL" envDefault:"1m"`
}

func main() {
	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg)
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("service exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		cacheCfg cache.Config
		encCfg   encoder.Config
		srvCfg   server.Config
		rlCfg    rateLimitConfig
	)
	config.MustLoad(&cacheCfg)
	config.MustLoad(&encCfg)
	config.MustLoad(&srvCfg)
	config.MustLoad(&rlCfg)

	namespaces := make([]string, 0, len(encoder.Types()))
	for _, typ := range encoder.Types() {
		namespaces = append(namespaces, typ.String())
	}

	cacheMgr, err := cache.NewManager(cacheCfg, namespaces,
		cache.WithManagerLogger(log.With(logger.Component("cache"))),
	)
	if err != nil {
		return err
	}

	collector := metrics.New()

	models := buildModels(encCfg, log)
	svc := encoder.NewService(models, cacheMgr, collector,
		encoder.WithServiceLogger(log.With(logger.Component("encoder"))),
		encoder.WithLimits(encoder.Limits{
			MaxSequenceLength: encCfg.MaxSequenceLength,
			MaxBatchSize:      encCfg.MaxBatchSize,
		}),
		encoder.WithInferenceTimeout(encCfg.InferenceTimeout),
	)

	routerCfg := api.RouterConfig{
		Logger:    log.With(logger.Component("http")),
		Collector: collector,
	}

	g, ctx := errgroup.WithContext(ctx)

	if rlCfg.Enabled {
		store := ratelimiter.NewMemoryStore(
			ratelimiter.WithMemoryStoreLogger(log.With(logger.Component("ratelimiter"))),
		)
		limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
			Capacity:       rlCfg.Capacity,
			RefillRate:     rlCfg.RefillRate,
			RefillInterval: rlCfg.RefillInterval,
		})
		if err != nil {
			return err
		}
		routerCfg.RateLimiter = limiter
		g.Go(asBackgroundTask(func() error { return store.Start(ctx) }))
	}

	// Redis expires entries server-side; the janitor only matters for the
	// in-memory backend.
	if cacheCfg.Enabled && cacheCfg.RedisURL == "" && cacheCfg.CleanupInterval > 0 {
		janitor := cache.NewJanitor(cacheMgr, cacheCfg.CleanupInterval, log.With(logger.Component("cache")))
		g.Go(asBackgroundTask(func() error { return janitor.Start(ctx) }))
	}

	handler := api.NewHandler(svc, cacheMgr, collector,
		api.WithHandlerLogger(log.With(logger.Component("api"))),
	)
	router := api.NewRouter(handler, routerCfg)

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log.With(logger.Component("server"))))
	if err != nil {
		return err
	}
	g.Go(srv.Run(ctx, router))

	log.Info("encoder service started",
		slog.String("addr", srvCfg.Addr),
		slog.Bool("cache_enabled", cacheCfg.Enabled),
		slog.Bool("rate_limit_enabled", rlCfg.Enabled),
		slog.Int("models", len(models)),
	)

	return g.Wait()
}

// buildModels wires one model per encoder type: remote runner models when a
// runner URL is configured, deterministic placeholders otherwise.
func buildModels(cfg encoder.Config, log *slog.Logger) map[encoder.Type]encoder.Model {
	models := make(map[encoder.Type]encoder.Model, len(encoder.Types()))
	for _, typ := range encoder.Types() {
		if cfg.RunnerURL != "" {
			models[typ] = encoder.NewRunnerModel(cfg.RunnerURL, typ.ModelName(),
				encoder.WithDimensions(cfg.Dimensions),
			)
			log.Info("using runner model", logger.Model(typ.ModelName()), slog.String("runner_url", cfg.RunnerURL))
			continue
		}
		models[typ] = encoder.NewPlaceholder(cfg.Dimensions)
		log.Warn("no runner configured, using placeholder model", logger.Model(typ.ModelName()))
	}
	return models
}

// asBackgroundTask treats context cancellation as a clean exit so shutdown
// does not surface as an error from the group.
func asBackgroundTask(fn func() error) func() error {
	return func() error {
		if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}
}
