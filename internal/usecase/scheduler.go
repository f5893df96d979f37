package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

// SchedulerConfig holds the scheduling settings.
type SchedulerConfig struct {
	RefreshTime time.Duration
	// Workers > 1 checks that many targets at once; each target keeps its own
	// retry chain.
	Workers int
}

// Scheduler re-checks every monitored target on a fixed interval.
type Scheduler struct {
	cfg       SchedulerConfig
	checker   SearchChecker
	targets   TargetService
	announcer repository.TargetAnnouncer
	logger    *zap.Logger

	mu   sync.RWMutex
	list []*entity.MonitoredTarget
}

// NewScheduler creates a Scheduler. announcer may be nil.
func NewScheduler(
	cfg SchedulerConfig,
	checker SearchChecker,
	targets TargetService,
	announcer repository.TargetAnnouncer,
	logger *zap.Logger,
) *Scheduler {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Scheduler{
		cfg:       cfg,
		checker:   checker,
		targets:   targets,
		announcer: announcer,
		logger:    logger.Named("scheduler"),
	}
}

// Load replaces the in-memory target set with the store's.
func (s *Scheduler) Load(ctx context.Context) error {
	list, err := s.targets.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load targets: %w", err)
	}
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	s.logger.Info("targets loaded", zap.Int("count", len(list)))
	return nil
}

// AddTarget stores a new target and schedules it from the next pass on.
func (s *Scheduler) AddTarget(ctx context.Context, rawURL, title string) (*entity.MonitoredTarget, error) {
	target, err := s.targets.Add(ctx, rawURL, title)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.list = append(s.list, target)
	s.mu.Unlock()
	return target, nil
}

// Targets returns a copy of the in-memory target set.
func (s *Scheduler) Targets() []*entity.MonitoredTarget {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entity.MonitoredTarget, len(s.list))
	copy(out, s.list)
	return out
}

// Run runs a pass right away and then one every RefreshTime until ctx is done.
// A pass in progress is allowed to finish its current cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	s.RunPass(ctx)

	ticker := time.NewTicker(s.cfg.RefreshTime)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.RunPass(ctx)
		}
	}
}

// RunPass checks every target once. The pass stops early when the proxy pool
// is empty, since every remaining target would fail the same way.
func (s *Scheduler) RunPass(ctx context.Context) []*entity.CycleReport {
	s.applyAnnouncements(ctx)

	targets := s.Targets()
	if len(targets) == 0 {
		s.logger.Debug("no targets to check")
		return nil
	}

	start := time.Now()
	reports := make([]*entity.CycleReport, len(targets))
	var deferred atomic.Bool

	if s.cfg.Workers <= 1 {
		for i, target := range targets {
			if ctx.Err() != nil || deferred.Load() {
				break
			}
			reports[i] = s.checker.Check(ctx, target)
			if reports[i].Outcome == entity.StateDeferred {
				deferred.Store(true)
			}
		}
	} else {
		var g errgroup.Group
		g.SetLimit(s.cfg.Workers)
		for i, target := range targets {
			if ctx.Err() != nil || deferred.Load() {
				break
			}
			g.Go(func() error {
				if ctx.Err() != nil || deferred.Load() {
					return nil
				}
				reports[i] = s.checker.Check(ctx, target)
				if reports[i].Outcome == entity.StateDeferred {
					deferred.Store(true)
				}
				return nil
			})
		}
		_ = g.Wait()
	}

	done := reports[:0]
	for _, r := range reports {
		if r != nil {
			done = append(done, r)
		}
	}
	s.logger.Info("pass finished",
		zap.Int("targets", len(targets)),
		zap.Int("checked", len(done)),
		zap.Bool("deferred", deferred.Load()),
		zap.Duration("duration", time.Since(start)),
	)
	return done
}

// applyAnnouncements reloads the target set when another process added targets.
func (s *Scheduler) applyAnnouncements(ctx context.Context) {
	if s.announcer == nil {
		return
	}
	ids, err := s.announcer.Drain(ctx)
	if err != nil {
		s.logger.Warn("failed to read target announcements", zap.Error(err))
	}
	if len(ids) == 0 {
		return
	}
	s.logger.Info("new targets announced", zap.Int64s("target_ids", ids))
	if err := s.Load(ctx); err != nil {
		s.logger.Error("failed to reload targets", zap.Error(err))
	}
}
