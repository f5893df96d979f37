package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/pkg/metrics"
)

// PoolConfig holds the proxy pool settings.
type PoolConfig struct {
	RefreshInterval   time.Duration
	ReconcileInterval time.Duration
	ValidationWorkers int
	ProbeTimeout      time.Duration
	ValidateOnRefresh bool
	// OnProbe, if set, is called from the validation workers after every probe.
	OnProbe func(proxy entity.ProxyEndpoint, ok bool)
}

// ProxyPicker hands out proxies to fetching code and takes back broken ones.
type ProxyPicker interface {
	// PickRandom returns a live proxy chosen uniformly at random, or ErrPoolEmpty.
	PickRandom() (entity.ProxyEndpoint, error)
	// PickRandomExcept is PickRandom restricted to proxies not in exclude.
	PickRandomExcept(exclude ...entity.ProxyEndpoint) (entity.ProxyEndpoint, error)
	// Evict removes a proxy a consumer found broken.
	Evict(p entity.ProxyEndpoint)
}

// ProxyPool owns the live set of proxies.
type ProxyPool interface {
	ProxyPicker
	// Refresh replaces the live set with a fresh list from the source.
	Refresh(ctx context.Context) error
	// ValidateAll probes every live proxy and queues failures for eviction.
	ValidateAll(ctx context.Context)
	// Reconcile applies queued evictions.
	Reconcile()
	// Snapshot returns a copy of the live set.
	Snapshot() []entity.ProxyEndpoint
	// Start warms the pool up and runs the refresh and reconcile loops until ctx is done.
	Start(ctx context.Context)
	// Wait blocks until the loops started by Start have exited.
	Wait()
}

type proxyPool struct {
	cfg    PoolConfig
	source repository.ProxySource
	prober repository.ProxyProber
	logger *zap.Logger

	mu      sync.RWMutex
	live    []entity.ProxyEndpoint
	pending map[entity.ProxyEndpoint]struct{}

	wg sync.WaitGroup
}

// NewProxyPool creates an empty pool.
func NewProxyPool(cfg PoolConfig, source repository.ProxySource, prober repository.ProxyProber, logger *zap.Logger) ProxyPool {
	if cfg.ValidationWorkers < 1 {
		cfg.ValidationWorkers = 1
	}
	return &proxyPool{
		cfg:     cfg,
		source:  source,
		prober:  prober,
		logger:  logger.Named("proxy_pool"),
		pending: make(map[entity.ProxyEndpoint]struct{}),
	}
}

func (p *proxyPool) Refresh(ctx context.Context) error {
	fresh, err := p.source.Fetch(ctx)
	if err == nil && len(fresh) == 0 {
		err = repository.ErrEmptyProxyList
	}
	if err != nil {
		metrics.ProxyRefreshTotal.WithLabelValues("failure").Inc()
		p.logger.Warn("proxy refresh failed, keeping previous set",
			zap.String("source", p.source.Name()),
			zap.Error(err),
		)
		return err
	}

	fresh = dedupe(fresh)
	p.mu.Lock()
	p.live = fresh
	n := len(p.live)
	p.mu.Unlock()

	metrics.ProxyRefreshTotal.WithLabelValues("success").Inc()
	metrics.ProxiesLive.Set(float64(n))
	p.logger.Info("proxy list refreshed", zap.Int("count", n))
	return nil
}

func (p *proxyPool) ValidateAll(ctx context.Context) {
	candidates := p.Snapshot()
	if len(candidates) == 0 {
		return
	}

	var (
		g      errgroup.Group
		failed int
		mu     sync.Mutex
	)
	g.SetLimit(p.cfg.ValidationWorkers)
	for _, proxy := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok := p.probe(ctx, proxy)
			if p.cfg.OnProbe != nil {
				p.cfg.OnProbe(proxy, ok)
			}
			if ok {
				return nil
			}
			p.mu.Lock()
			p.pending[proxy] = struct{}{}
			p.mu.Unlock()

			mu.Lock()
			failed++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("proxy validation finished",
		zap.Int("checked", len(candidates)),
		zap.Int("queued_for_eviction", failed),
	)
}

// probe reports whether the canary saw the proxy's own address.
func (p *proxyPool) probe(ctx context.Context, proxy entity.ProxyEndpoint) bool {
	probeCtx := ctx
	if p.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(ctx, p.cfg.ProbeTimeout)
		defer cancel()
	}
	ip, err := p.prober.Probe(probeCtx, proxy)
	if err != nil {
		p.logger.Debug("canary probe failed", zap.String("proxy", proxy.String()), zap.Error(err))
		return false
	}
	if ip != proxy.Host {
		p.logger.Debug("canary saw a different address",
			zap.String("proxy", proxy.String()),
			zap.String("observed_ip", ip),
		)
		return false
	}
	return true
}

func (p *proxyPool) Reconcile() {
	p.mu.Lock()
	if len(p.pending) == 0 {
		p.mu.Unlock()
		return
	}
	kept := p.live[:0:0]
	for _, proxy := range p.live {
		if _, bad := p.pending[proxy]; !bad {
			kept = append(kept, proxy)
		}
	}
	removed := len(p.live) - len(kept)
	p.live = kept
	p.pending = make(map[entity.ProxyEndpoint]struct{})
	n := len(p.live)
	p.mu.Unlock()

	metrics.ProxyEvictionsTotal.WithLabelValues("canary").Add(float64(removed))
	metrics.ProxiesLive.Set(float64(n))
	p.logger.Info("evicted proxies", zap.Int("removed", removed), zap.Int("live", n))
}

func (p *proxyPool) PickRandom() (entity.ProxyEndpoint, error) {
	return p.PickRandomExcept()
}

func (p *proxyPool) PickRandomExcept(exclude ...entity.ProxyEndpoint) (entity.ProxyEndpoint, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(exclude) == 0 {
		if len(p.live) == 0 {
			return entity.ProxyEndpoint{}, repository.ErrPoolEmpty
		}
		return p.live[rand.IntN(len(p.live))], nil
	}

	eligible := make([]entity.ProxyEndpoint, 0, len(p.live))
	for _, proxy := range p.live {
		if !slices.Contains(exclude, proxy) {
			eligible = append(eligible, proxy)
		}
	}
	if len(eligible) == 0 {
		return entity.ProxyEndpoint{}, repository.ErrPoolEmpty
	}
	return eligible[rand.IntN(len(eligible))], nil
}

func (p *proxyPool) Evict(proxy entity.ProxyEndpoint) {
	p.mu.Lock()
	before := len(p.live)
	p.live = slices.DeleteFunc(slices.Clone(p.live), func(candidate entity.ProxyEndpoint) bool {
		return candidate == proxy
	})
	removed := len(p.live) < before
	delete(p.pending, proxy)
	n := len(p.live)
	p.mu.Unlock()

	if removed {
		metrics.ProxyEvictionsTotal.WithLabelValues("fetch").Inc()
		metrics.ProxiesLive.Set(float64(n))
		p.logger.Debug("proxy evicted", zap.String("proxy", proxy.String()), zap.Int("live", n))
	}
}

func (p *proxyPool) Snapshot() []entity.ProxyEndpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]entity.ProxyEndpoint, len(p.live))
	copy(out, p.live)
	return out
}

func (p *proxyPool) Start(ctx context.Context) {
	_ = p.Refresh(ctx)
	p.ValidateAll(ctx)
	p.Reconcile()

	p.wg.Add(2)
	go p.loop(ctx, "refresh", p.cfg.RefreshInterval, func() {
		if err := p.Refresh(ctx); err != nil {
			return
		}
		if p.cfg.ValidateOnRefresh {
			p.ValidateAll(ctx)
		}
	})
	go p.loop(ctx, "reconcile", p.cfg.ReconcileInterval, func() {
		p.ValidateAll(ctx)
		p.Reconcile()
	})
}

func (p *proxyPool) Wait() {
	p.wg.Wait()
}

func (p *proxyPool) loop(ctx context.Context, name string, interval time.Duration, tick func()) {
	defer p.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pool loop stopped", zap.String("loop", name))
			return
		case <-ticker.C:
			tick()
		}
	}
}

// isPoolEmpty is shorthand used by the fetching use cases.
// dedupe drops repeated endpoints, keeping the first occurrence.
func dedupe(list []entity.ProxyEndpoint) []entity.ProxyEndpoint {
	seen := make(map[entity.ProxyEndpoint]struct{}, len(list))
	out := list[:0:0]
	for _, proxy := range list {
		if _, dup := seen[proxy]; dup {
			continue
		}
		seen[proxy] = struct{}{}
		out = append(out, proxy)
	}
	return out
}

func isPoolEmpty(err error) bool {
	return errors.Is(err, repository.ErrPoolEmpty)
}
