package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/plant-care/internal/bootstrap"
	"github.com/yanqian/plant-care/internal/domain/auth"
	"github.com/yanqian/plant-care/internal/domain/insight"
	"github.com/yanqian/plant-care/internal/domain/plant"
	"github.com/yanqian/plant-care/internal/domain/timeline"
	"github.com/yanqian/plant-care/internal/domain/weather"
	"github.com/yanqian/plant-care/internal/domain/zone"
	"github.com/yanqian/plant-care/internal/infra/config"
	"github.com/yanqian/plant-care/internal/infra/imagestore"
	"github.com/yanqian/plant-care/internal/infra/photoanalysis"
	"github.com/yanqian/plant-care/internal/infra/plantrepo"
	"github.com/yanqian/plant-care/internal/infra/weather/openmeteo"
	"github.com/yanqian/plant-care/internal/infra/weathercache"
	"github.com/yanqian/plant-care/internal/infra/zonestore"
	httpiface "github.com/yanqian/plant-care/internal/interface/http"
)

// providePostgresPool returns nil when the DSN is unset or the database is unreachable.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, func()) {
	noop := func() {}
	dsn := strings.TrimSpace(cfg.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory plant store")
		return nil, noop
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory plant store", "error", err)
		return nil, noop
	}
	if cfg.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Postgres.MaxConns
	}
	if cfg.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory plant store", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory plant store", "error", err)
		pool.Close()
		return nil, noop
	}
	logger.Info("postgres plant store enabled")
	return pool, pool.Close
}

func providePlantStore(pool *pgxpool.Pool) plant.Store {
	if pool == nil {
		return plantrepo.NewMemoryStore()
	}
	return plantrepo.NewPostgresStore(pool)
}

func provideMigrator(pool *pgxpool.Pool, logger *slog.Logger) (bootstrap.Migrator, error) {
	if pool == nil {
		return nil, nil
	}
	return plantrepo.NewMigrator(pool, logger)
}

// provideValkeyClient returns nil when Valkey is disabled or unreachable.
func provideValkeyClient(cfg *config.Config, logger *slog.Logger) (valkey.Client, func()) {
	noop := func() {}
	if !cfg.Valkey.Enabled {
		return nil, noop
	}
	opt, err := buildValkeyOptions(cfg)
	if err != nil {
		logger.Error("invalid valkey configuration, falling back to memory stores", "error", err)
		return nil, noop
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		logger.Error("failed to create valkey client, falling back to memory stores", "error", err)
		return nil, noop
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		logger.Error("valkey ping failed, falling back to memory stores", "error", err)
		client.Close()
		return nil, noop
	}
	logger.Info("valkey enabled", "addr", cfg.Valkey.Addr)
	return client, client.Close
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}

func provideImageStore(cfg *config.Config, logger *slog.Logger) (imagestore.Store, error) {
	if strings.EqualFold(cfg.Storage.Driver, "r2") {
		return imagestore.NewR2Storage(
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			logger,
		)
	}
	return imagestore.NewMemoryStorage(), nil
}

func providePhotoAnalyzer() timeline.PhotoAnalyzer {
	return photoanalysis.NewStub()
}

func providePlantService(store plant.Store, images imagestore.Store, logger *slog.Logger) plant.Service {
	return plant.NewService(store, images, logger)
}

func provideTimelineService(store plant.Store, images imagestore.Store, analyzer timeline.PhotoAnalyzer, logger *slog.Logger) timeline.Service {
	return timeline.NewService(store.Events(), store.Photos(), store.Plants(), images, analyzer, logger)
}

func provideWeatherStrategies(cfg *config.Config) []weather.Strategy {
	client := openmeteo.NewClient(cfg.Weather.BaseURL, cfg.Weather.Timeout)
	breaker := openmeteo.BreakerConfig{
		MaxRequests: cfg.Weather.Breaker.MaxRequests,
		Interval:    cfg.Weather.Breaker.Interval,
		Timeout:     cfg.Weather.Breaker.Timeout,
		MaxFailures: cfg.Weather.Breaker.MaxFailures,
	}
	return []weather.Strategy{
		openmeteo.NewAdvancedStrategy(client, breaker),
		openmeteo.NewBasicStrategy(client, breaker),
	}
}

func provideWeatherCache(client valkey.Client) weather.Cache {
	if client == nil {
		return weathercache.NewMemoryStore()
	}
	return weathercache.NewValkeyStore(client, "weather")
}

func provideWeatherService(cfg *config.Config, strategies []weather.Strategy, cache weather.Cache, logger *slog.Logger) weather.Service {
	svc := weather.NewService(weather.Config{DefaultLabel: cfg.Weather.DefaultLabel}, strategies, logger)
	if !cfg.Weather.Cache.Enabled {
		return svc
	}
	return weather.NewCachedService(svc, cache, cfg.Weather.Cache.TTL, logger)
}

func provideInsightService(plants plant.Service, events timeline.Service, weatherSvc weather.Service, logger *slog.Logger) insight.Service {
	return insight.NewService(plants, events, weatherSvc, logger)
}

func provideZoneStore(client valkey.Client) zone.Store {
	if client == nil {
		return zonestore.NewMemoryStore()
	}
	return zonestore.NewValkeyStore(client, "zones")
}

func provideZoneService(cfg *config.Config, store zone.Store, logger *slog.Logger) zone.Service {
	seeds := make([]zone.Seed, 0, len(cfg.Zones.Defaults))
	for _, s := range cfg.Zones.Defaults {
		seeds = append(seeds, zone.Seed{Name: s.Name, AreaType: s.AreaType})
	}
	return zone.NewService(store, seeds, logger)
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.Secret,
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}
}

func provideHandler(
	cfg *config.Config,
	plants plant.Service,
	events timeline.Service,
	insights insight.Service,
	weatherSvc weather.Service,
	zones zone.Service,
	images imagestore.Store,
	logger *slog.Logger,
) *httpiface.Handler {
	return httpiface.NewHandler(plants, events, insights, weatherSvc, zones, images, cfg.Storage.MaxBytes, logger)
}
