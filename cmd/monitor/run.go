package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/adapter/olx"
	"github.com/user/listing-monitor/internal/delivery/http/handler"
	"github.com/user/listing-monitor/internal/delivery/http/router"
	"github.com/user/listing-monitor/internal/usecase"
	"github.com/user/listing-monitor/pkg/metrics"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the proxy pool, the scheduler and the admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runMonitor(ctx)
	},
}

func runMonitor(ctx context.Context) error {
	metrics.Init()

	store, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer store.Close()

	caches, err := openCache(ctx, cfg.Redis, log)
	if err != nil {
		return err
	}
	defer caches.close()

	pool := newProxyPool(cfg.Proxy, nil, log)
	sessions := newSessionProvider(cfg.Monitor, log)
	parser := olx.NewParser(olx.MarkupFromConfig(cfg.Markup))
	fetcher := usecase.NewItemFetcher(pool, sessions, parser, newItemLimiter(cfg.Monitor), cfg.Monitor.FetchTimeout, log)

	checker := usecase.NewSearchChecker(usecase.CheckerConfig{
		FetchTimeout:         cfg.Monitor.FetchTimeout,
		MaxAttempts:          cfg.Monitor.MaxAttempts,
		MaxStructureAttempts: cfg.Monitor.MaxStructureAttempts,
		CandidateTTL:         cfg.Redis.CandidateTTL,
		NotifyTTL:            cfg.Redis.NotifyTTL,
	}, pool, sessions, parser, fetcher, store, caches.cache, newNotifier(cfg.Notifier, log), log)

	targets := usecase.NewTargetService(targetConfig(cfg.Monitor), store, caches.announcer, log)
	scheduler := usecase.NewScheduler(usecase.SchedulerConfig{
		RefreshTime: cfg.Monitor.RefreshTime,
		Workers:     cfg.Monitor.Workers,
	}, checker, targets, caches.announcer, log)
	if err := scheduler.Load(ctx); err != nil {
		return err
	}
	// Announcements queued before this process started are covered by Load.
	if _, err := caches.announcer.Drain(ctx); err != nil {
		log.Warn("failed to clear stale target announcements", zap.Error(err))
	}

	var server *http.Server
	if cfg.Server.Enabled {
		server = &http.Server{
			Addr:         ":" + cfg.Server.Port,
			Handler:      router.New(handler.NewHandler(scheduler, pool, store, log), log),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 35 * time.Second,
			IdleTimeout:  120 * time.Second,
		}
		go func() {
			log.Info("starting admin server", zap.String("port", cfg.Server.Port))
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("admin server failed", zap.Error(err))
			}
		}()
	}

	pool.Start(ctx)
	log.Info("proxy pool warmed up", zap.Int("live", len(pool.Snapshot())))

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("shutting down...")
	pool.Wait()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("admin server forced to shutdown", zap.Error(err))
		}
	}
	log.Info("monitor stopped")
	return nil
}
