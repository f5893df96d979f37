package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
	"github.com/user/listing-monitor/pkg/metrics"
)

// fetchPage binds a fresh session to proxy and fetches one page. The fetch is
// detached from ctx cancellation and bounded by timeout, so a stop request
// never cuts a fetch in half.
func fetchPage(
	ctx context.Context,
	sessions repository.SessionProvider,
	proxy entity.ProxyEndpoint,
	url string,
	timeout time.Duration,
	pageKind string,
	logger *zap.Logger,
) (*entity.Page, error) {
	session, err := sessions.NewSession(proxy)
	if err != nil {
		return nil, repository.TransportError(err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Debug("session close failed", zap.String("proxy", proxy.String()), zap.Error(err))
		}
	}()

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	start := time.Now()
	page, err := session.Get(fetchCtx, url)
	metrics.FetchDuration.WithLabelValues(pageKind).Observe(time.Since(start).Seconds())
	return page, err
}
