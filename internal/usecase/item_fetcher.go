package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

// ItemFetcher resolves a candidate link into a full item.
type ItemFetcher interface {
	// Resolve fetches the item page once, through a freshly picked proxy. It
	// does not retry: a failed candidate resurfaces on the next search cycle.
	Resolve(ctx context.Context, candidateURL string, parentTargetID int64) (*entity.Item, error)
}

type itemFetcher struct {
	pool     ProxyPicker
	sessions repository.SessionProvider
	parser   repository.ItemPageParser
	limiter  *rate.Limiter
	timeout  time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewItemFetcher creates an ItemFetcher. A nil limiter disables pacing.
func NewItemFetcher(
	pool ProxyPicker,
	sessions repository.SessionProvider,
	parser repository.ItemPageParser,
	limiter *rate.Limiter,
	fetchTimeout time.Duration,
	logger *zap.Logger,
) ItemFetcher {
	return &itemFetcher{
		pool:     pool,
		sessions: sessions,
		parser:   parser,
		limiter:  limiter,
		timeout:  fetchTimeout,
		logger:   logger.Named("item_fetcher"),
		now:      time.Now,
	}
}

func (f *itemFetcher) Resolve(ctx context.Context, candidateURL string, parentTargetID int64) (*entity.Item, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	proxy, err := f.pool.PickRandom()
	if err != nil {
		return nil, err
	}

	page, err := fetchPage(ctx, f.sessions, proxy, candidateURL, f.timeout, "item", f.logger)
	if err != nil {
		if repository.IsTransport(err) {
			f.pool.Evict(proxy)
		}
		return nil, fmt.Errorf("fetch item page via %s: %w", proxy, err)
	}

	if err := f.parser.CheckItemPage(page.Body); err != nil {
		return nil, err
	}
	details, err := f.parser.ExtractItem(page.Body)
	if err != nil {
		return nil, err
	}

	return &entity.Item{
		ID:              details.ID,
		URL:             candidateURL,
		Title:           details.Title,
		UploadTimestamp: f.now(),
		ParentTargetID:  parentTargetID,
	}, nil
}
