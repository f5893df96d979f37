package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/pkg/metrics"
)

// CheckerConfig holds the per-cycle retry policy and cache lifetimes.
type CheckerConfig struct {
	FetchTimeout time.Duration
	// MaxAttempts caps every attempt of a cycle, whatever made it fail.
	MaxAttempts int
	// MaxStructureAttempts caps attempts that ended in a PageStructureError.
	MaxStructureAttempts int
	CandidateTTL         time.Duration
	NotifyTTL            time.Duration
}

// SearchChecker runs check cycles for monitored targets.
type SearchChecker interface {
	// Check runs one cycle for target and reports how it ended. It never panics
	// on collaborator failures and never returns a nil report.
	Check(ctx context.Context, target *entity.MonitoredTarget) *entity.CycleReport
}

type searchChecker struct {
	cfg      CheckerConfig
	pool     ProxyPicker
	sessions repository.SessionProvider
	parser   repository.SearchPageParser
	fetcher  ItemFetcher
	targets  repository.TargetRepository
	items    repository.ItemRepository
	cache    repository.ItemCache
	notifier repository.Notifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewSearchChecker creates a SearchChecker.
func NewSearchChecker(
	cfg CheckerConfig,
	pool ProxyPicker,
	sessions repository.SessionProvider,
	parser repository.SearchPageParser,
	fetcher ItemFetcher,
	store repository.Store,
	cache repository.ItemCache,
	notifier repository.Notifier,
	logger *zap.Logger,
) SearchChecker {
	if cfg.MaxStructureAttempts < 1 {
		cfg.MaxStructureAttempts = 1
	}
	if cfg.MaxAttempts < cfg.MaxStructureAttempts {
		cfg.MaxAttempts = cfg.MaxStructureAttempts
	}
	return &searchChecker{
		cfg:      cfg,
		pool:     pool,
		sessions: sessions,
		parser:   parser,
		fetcher:  fetcher,
		targets:  store,
		items:    store,
		cache:    cache,
		notifier: notifier,
		logger:   logger.Named("search_checker"),
		now:      time.Now,
	}
}

func (c *searchChecker) Check(ctx context.Context, target *entity.MonitoredTarget) *entity.CycleReport {
	attempt := &entity.CheckAttempt{CycleID: uuid.NewString(), Target: target}
	report := &entity.CycleReport{CycleID: attempt.CycleID, TargetID: target.ID}
	logger := c.logger.With(
		zap.String("cycle_id", attempt.CycleID),
		zap.Int64("target_id", target.ID),
	)

	start := time.Now()
	defer func() {
		report.Attempts = attempt.TryCount
		report.Duration = time.Since(start)
		metrics.CheckCyclesTotal.WithLabelValues(string(report.Outcome)).Inc()
		logger.Info("check cycle finished",
			zap.String("outcome", string(report.Outcome)),
			zap.Int("attempts", report.Attempts),
			zap.Int("candidates", report.Candidates),
			zap.Int("new_items", report.NewItems),
			zap.Duration("duration", report.Duration),
			zap.Error(report.Err),
		)
	}()

	candidates, outcome, err := c.fetchCandidates(ctx, attempt, logger)
	if outcome != entity.StateExtracting {
		report.Outcome, report.Err = outcome, err
		return report
	}
	report.Candidates = len(candidates)

	logger.Debug("diffing candidates", zap.Int("count", len(candidates)))
	newItems, err := c.diff(ctx, target, candidates, logger)
	report.NewItems = newItems
	switch {
	case isPoolEmpty(err):
		report.Outcome, report.Err = entity.StateDeferred, err
		return report
	case err != nil:
		report.Outcome, report.Err = entity.StateAbandoned, err
		return report
	}

	report.Outcome = entity.StateDone
	if err := c.targets.MarkChecked(context.WithoutCancel(ctx), target.ID, c.now()); err != nil {
		logger.Warn("failed to record check time", zap.Error(err))
	}
	return report
}

// fetchCandidates drives Fetching, Validating and Extracting with retries.
// It returns StateExtracting together with the candidate links on success, or
// the terminal state the cycle ended in.
func (c *searchChecker) fetchCandidates(
	ctx context.Context,
	attempt *entity.CheckAttempt,
	logger *zap.Logger,
) ([]string, entity.CheckState, error) {
	var (
		lastErr           error
		exclude           []entity.ProxyEndpoint
		structureFailures int
	)
	target := attempt.Target

	for attempt.TryCount < c.cfg.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return nil, entity.StateAbandoned, err
		}
		attempt.TryCount++

		// Fetching
		proxy, err := c.pool.PickRandomExcept(exclude...)
		if isPoolEmpty(err) && len(exclude) > 0 && !repository.IsTransport(lastErr) {
			// The previous proxy is healthy, only the page was wrong; reuse it
			// when it is the last one standing.
			proxy, err = c.pool.PickRandom()
		}
		if err != nil {
			metrics.CheckAttemptErrorsTotal.WithLabelValues(repository.ErrorType(err)).Inc()
			logger.Warn("no proxy available, deferring target", zap.Error(err))
			return nil, entity.StateDeferred, err
		}
		attempt.Proxy = proxy
		exclude = []entity.ProxyEndpoint{proxy}

		page, err := fetchPage(ctx, c.sessions, proxy, target.URL, c.cfg.FetchTimeout, "search", logger)
		if err == nil {
			// Validating
			err = c.parser.CheckSearchPage(page.Body)
		}
		if err == nil {
			// Extracting
			base := page.URL
			if base == "" {
				base = target.URL
			}
			var links []string
			if links, err = c.parser.ExtractCandidates(base, page.Body); err == nil {
				return links, entity.StateExtracting, nil
			}
		}

		// Retrying
		lastErr = err
		metrics.CheckAttemptErrorsTotal.WithLabelValues(repository.ErrorType(err)).Inc()
		retryLogger := logger.With(
			zap.Int("try", attempt.TryCount),
			zap.String("proxy", proxy.String()),
			zap.Error(err),
		)

		switch {
		case repository.IsTransport(err):
			c.pool.Evict(proxy)
			retryLogger.Info("fetch failed, retrying with another proxy")
		case repository.IsPageStructure(err):
			structureFailures++
			if structureFailures >= c.cfg.MaxStructureAttempts {
				retryLogger.Warn("unexpected page structure, abandoning cycle",
					zap.Int("structure_failures", structureFailures))
				return nil, entity.StateAbandoned, err
			}
			retryLogger.Info("unexpected page structure, retrying")
		default:
			retryLogger.Warn("check attempt failed, retrying")
		}
	}

	logger.Warn("attempt budget exhausted, abandoning cycle", zap.Int("attempts", attempt.TryCount))
	return nil, entity.StateAbandoned, lastErr
}

// diff resolves every candidate, persists the ones the store does not know yet
// and notifies about them. A failing candidate never stops its siblings; only
// an empty pool or a stop request ends the loop early.
func (c *searchChecker) diff(
	ctx context.Context,
	target *entity.MonitoredTarget,
	candidates []string,
	logger *zap.Logger,
) (int, error) {
	work := context.WithoutCancel(ctx)
	newItems := 0

	for _, candidateURL := range candidates {
		if err := ctx.Err(); err != nil {
			return newItems, err
		}
		candidateLogger := logger.With(zap.String("candidate", candidateURL))

		item, err := c.resolve(ctx, target, candidateURL)
		if err != nil {
			metrics.CheckAttemptErrorsTotal.WithLabelValues(repository.ErrorType(err)).Inc()
			if isPoolEmpty(err) {
				candidateLogger.Warn("proxy pool drained while resolving candidates", zap.Error(err))
				return newItems, err
			}
			candidateLogger.Info("candidate resolution failed", zap.Error(err))
			continue
		}
		candidateLogger = candidateLogger.With(zap.Int64("item_id", item.ID))

		exists, err := c.items.ItemExists(work, item.ID)
		if err != nil {
			metrics.CheckAttemptErrorsTotal.WithLabelValues("store").Inc()
			candidateLogger.Error("item lookup failed", zap.Error(err))
			continue
		}
		if exists {
			continue
		}

		if err := c.items.InsertItem(work, item); err != nil {
			metrics.CheckAttemptErrorsTotal.WithLabelValues("store").Inc()
			candidateLogger.Error("item insert failed", zap.Error(err))
			continue
		}
		newItems++
		metrics.ItemsNewTotal.Inc()
		candidateLogger.Info("new item found", zap.String("title", item.Title))

		c.announce(work, item, candidateLogger)
	}
	return newItems, nil
}

// resolve returns the item behind a candidate link, from the cache when the
// link was resolved before.
func (c *searchChecker) resolve(ctx context.Context, target *entity.MonitoredTarget, candidateURL string) (*entity.Item, error) {
	work := context.WithoutCancel(ctx)

	details, ok, err := c.cache.LookupCandidate(work, candidateURL)
	if err != nil {
		c.logger.Debug("candidate cache lookup failed", zap.String("candidate", candidateURL), zap.Error(err))
	}
	if ok {
		return &entity.Item{
			ID:              details.ID,
			URL:             candidateURL,
			Title:           details.Title,
			UploadTimestamp: c.now(),
			ParentTargetID:  target.ID,
		}, nil
	}

	item, err := c.fetcher.Resolve(ctx, candidateURL, target.ID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.RememberCandidate(work, candidateURL, entity.ItemDetails{ID: item.ID, Title: item.Title}, c.cfg.CandidateTTL); err != nil {
		c.logger.Debug("candidate cache write failed", zap.String("candidate", candidateURL), zap.Error(err))
	}
	return item, nil
}

// announce notifies the operator unless another cycle already did.
func (c *searchChecker) announce(ctx context.Context, item *entity.Item, logger *zap.Logger) {
	claimed, err := c.cache.ClaimNotification(ctx, item.ID, c.cfg.NotifyTTL)
	if err != nil {
		logger.Warn("notification claim failed, notifying anyway", zap.Error(err))
		claimed = true
	}
	if !claimed {
		logger.Debug("item already announced")
		return
	}

	if err := c.notifier.Notify(ctx, item.Title, item.URL); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failure").Inc()
		logger.Error("notification failed", zap.Error(err))
		return
	}
	metrics.NotificationsTotal.WithLabelValues("success").Inc()
}
