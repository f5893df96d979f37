package chromedp_session

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

// Provider starts one headless Chrome per session, routed through the session's proxy.
type Provider struct {
	userAgents []string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProvider creates a browser-backed session provider. timeout applies to
// page loads whose context carries no deadline.
func NewProvider(userAgents []string, timeout time.Duration, logger *zap.Logger) *Provider {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Provider{userAgents: userAgents, timeout: timeout, logger: logger.Named("browser_session")}
}

// NewSession launches a browser bound to proxy.
func (p *Provider) NewSession(proxy entity.ProxyEndpoint) (repository.Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.ProxyServer(proxy.URL()),
	)
	if len(p.userAgents) > 0 {
		opts = append(opts, chromedp.UserAgent(p.userAgents[rand.IntN(len(p.userAgents))]))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	logger := p.logger.With(zap.String("proxy", proxy.String()))
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Sugar().Debugf))

	// The first Run starts the browser. It must not run under a timeout derived
	// context, or the browser would be torn down when the timeout fires.
	if err := chromedp.Run(browserCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7",
		}),
	); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	return &Session{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: p.timeout,
		logger:  logger,
	}, nil
}

// Session is one browser tab behind one proxy.
type Session struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
	logger     *zap.Logger
}

// Get navigates to rawURL and returns the rendered document.
func (s *Session) Get(ctx context.Context, rawURL string) (*entity.Page, error) {
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, repository.TransportError(context.DeadlineExceeded)
	}
	taskCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := chromedp.RunResponse(taskCtx, chromedp.Navigate(rawURL))
	if err != nil {
		s.logger.Debug("navigation failed", zap.String("url", rawURL), zap.Duration("elapsed", time.Since(startTime)), zap.Error(err))
		return nil, classify(taskCtx, err)
	}

	var html string
	if err := chromedp.Run(taskCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, classify(taskCtx, err)
	}

	status := 200
	if resp != nil {
		status = int(resp.Status)
	}
	if err := repository.CheckStatus(status); err != nil {
		return nil, err
	}
	return &entity.Page{URL: rawURL, StatusCode: status, Body: []byte(html)}, nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	s.cancel()
	return nil
}

// classify turns a chromedp failure into ErrTimeout or ErrProxyFailure.
func classify(taskCtx context.Context, err error) error {
	if errors.Is(taskCtx.Err(), context.DeadlineExceeded) || strings.Contains(err.Error(), "ERR_TIMED_OUT") {
		return fmt.Errorf("%w: %v", repository.ErrTimeout, err)
	}
	return repository.TransportError(err)
}
