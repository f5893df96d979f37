package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/listing-monitor/internal/adapter/canary"
	"github.com/user/listing-monitor/internal/adapter/chromedp_session"
	"github.com/user/listing-monitor/internal/adapter/httpsession"
	"github.com/user/listing-monitor/internal/adapter/memory"
	"github.com/user/listing-monitor/internal/adapter/notifier"
	"github.com/user/listing-monitor/internal/adapter/postgres"
	"github.com/user/listing-monitor/internal/adapter/proxysource"
	redis_adapter "github.com/user/listing-monitor/internal/adapter/redis"
	"github.com/user/listing-monitor/internal/adapter/sqlite"
	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/internal/usecase"
	"github.com/user/listing-monitor/pkg/config"
)

type schemaStore interface {
	repository.Store
	EnsureSchema(ctx context.Context) error
}

// openStore connects to the configured database and makes sure the tables exist.
func openStore(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (repository.Store, error) {
	var (
		store schemaStore
		err   error
	)
	switch cfg.Driver {
	case "postgres":
		store, err = postgres.NewStore(ctx, cfg.PostgresURL)
	case "sqlite":
		store, err = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	logger.Info("store ready", zap.String("driver", cfg.Driver))
	return store, nil
}

// cacheDeps are the item cache and target announcer, backed by Redis when it
// is enabled and by process memory otherwise.
type cacheDeps struct {
	cache     repository.ItemCache
	announcer repository.TargetAnnouncer
	close     func()
}

func openCache(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*cacheDeps, error) {
	if !cfg.Enabled {
		logger.Info("redis disabled, using in-memory item cache")
		return &cacheDeps{
			cache:     memory.NewItemCache(),
			announcer: memory.NewAnnouncer(),
			close:     func() {},
		}, nil
	}
	rdb, err := redis_adapter.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connection established", zap.String("addr", cfg.Addr))
	return &cacheDeps{
		cache:     redis_adapter.NewItemCache(rdb),
		announcer: redis_adapter.NewAnnouncer(rdb),
		close:     func() { _ = rdb.Close() },
	}, nil
}

func newProxyPool(cfg config.ProxyConfig, onProbe func(bool), logger *zap.Logger) usecase.ProxyPool {
	poolCfg := usecase.PoolConfig{
		RefreshInterval:   cfg.RefreshInterval,
		ReconcileInterval: cfg.ReconcileInterval,
		ValidationWorkers: cfg.ValidationWorkers,
		ProbeTimeout:      cfg.ProbeTimeout,
		ValidateOnRefresh: cfg.ValidateOnRefresh,
	}
	if onProbe != nil {
		poolCfg.OnProbe = func(_ entity.ProxyEndpoint, ok bool) { onProbe(ok) }
	}
	source := proxysource.NewFreeProxyList(cfg.SourceURL, logger)
	prober := canary.NewIPify(cfg.CanaryURL, cfg.ProbeTimeout)
	return usecase.NewProxyPool(poolCfg, source, prober, logger)
}

func newSessionProvider(cfg config.MonitorConfig, logger *zap.Logger) repository.SessionProvider {
	if cfg.SessionMode == "browser" {
		return chromedp_session.NewProvider(cfg.UserAgents, cfg.FetchTimeout, logger)
	}
	return httpsession.NewProvider(cfg.UserAgents, cfg.FetchTimeout, logger)
}

func newNotifier(cfg config.NotifierConfig, logger *zap.Logger) repository.Notifier {
	if cfg.Kind == "webhook" {
		return notifier.NewWebhookNotifier(cfg.WebhookURL, cfg.Language, logger)
	}
	return notifier.NewLogNotifier(cfg.Language, logger)
}

func newItemLimiter(cfg config.MonitorConfig) *rate.Limiter {
	if cfg.ItemRate <= 0 {
		return nil
	}
	burst := cfg.ItemBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.ItemRate), burst)
}

func targetConfig(cfg config.MonitorConfig) usecase.TargetConfig {
	return usecase.TargetConfig{OrderParam: cfg.OrderParam, OrderValue: cfg.OrderValue}
}
