package httpsession

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

const defaultTimeout = 30 * time.Second

// Provider hands out colly-backed sessions, one collector per proxy.
type Provider struct {
	userAgents []string
	timeout    time.Duration
	logger     *zap.Logger
}

// NewProvider creates a session provider. timeout applies to requests whose
// context carries no deadline.
func NewProvider(userAgents []string, timeout time.Duration, logger *zap.Logger) *Provider {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Provider{userAgents: userAgents, timeout: timeout, logger: logger.Named("http_session")}
}

// NewSession binds a fresh collector to proxy.
func (p *Provider) NewSession(proxy entity.ProxyEndpoint) (repository.Session, error) {
	proxyURL, err := url.Parse(proxy.URL())
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy:             http.ProxyURL(proxyURL),
		DisableKeepAlives: true,
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.UserAgent(p.pickUserAgent()),
	)
	c.WithTransport(transport)
	// Non-2xx answers are classified by the session, not reported as colly errors.
	c.ParseHTTPErrorResponse = true

	s := &Session{
		collector: c,
		transport: transport,
		timeout:   p.timeout,
		logger:    p.logger.With(zap.String("proxy", proxy.String())),
	}
	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "pl-PL,pl;q=0.9,en-US;q=0.8,en;q=0.7")
		r.Headers.Set("Accept-Encoding", "gzip, br")
	})
	c.OnResponse(s.onResponse)
	return s, nil
}

func (p *Provider) pickUserAgent() string {
	if len(p.userAgents) == 0 {
		return ""
	}
	return p.userAgents[rand.IntN(len(p.userAgents))]
}

// Session fetches pages through one proxy. It is not safe for concurrent use.
type Session struct {
	collector *colly.Collector
	transport *http.Transport
	timeout   time.Duration
	logger    *zap.Logger

	// result of the request in flight
	page      *entity.Page
	decodeErr error
}

// Get fetches rawURL. The request is bounded by the context deadline.
func (s *Session) Get(ctx context.Context, rawURL string) (*entity.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, repository.TransportError(err)
	}
	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout <= 0 {
			return nil, repository.TransportError(context.DeadlineExceeded)
		}
	}
	s.collector.SetRequestTimeout(timeout)
	s.page, s.decodeErr = nil, nil

	start := time.Now()
	if err := s.collector.Visit(rawURL); err != nil {
		s.logger.Debug("fetch failed",
			zap.String("url", rawURL),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, repository.TransportError(err)
	}
	if s.decodeErr != nil {
		return nil, fmt.Errorf("decode response body: %w", s.decodeErr)
	}
	if s.page == nil {
		return nil, repository.TransportError(errors.New("no response received"))
	}
	if err := repository.CheckStatus(s.page.StatusCode); err != nil {
		return nil, err
	}
	return s.page, nil
}

func (s *Session) onResponse(r *colly.Response) {
	body, err := decodeBody(r.Headers.Get("Content-Encoding"), r.Body)
	if err != nil {
		s.decodeErr = err
		return
	}
	s.page = &entity.Page{URL: r.Request.URL.String(), StatusCode: r.StatusCode, Body: body}
}

// Close drops any connection kept by the transport.
func (s *Session) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}

// decodeBody undoes brotli compression. colly already undoes gzip.
func decodeBody(contentEncoding string, body []byte) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "br":
		return io.ReadAll(brotli.NewReader(bytes.NewReader(body)))
	default:
		return body, nil
	}
}
