package proxysource

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// FreeProxyList reads the newline-delimited host:port block that
// free-proxy-list.net style pages publish inside a read-only textarea.
type FreeProxyList struct {
	url      string
	selector string
	client   *http.Client
	logger   *zap.Logger
}

// NewFreeProxyList creates a source reading sourceURL.
func NewFreeProxyList(sourceURL string, logger *zap.Logger) *FreeProxyList {
	return &FreeProxyList{
		url:      sourceURL,
		selector: "textarea[readonly]",
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Named("proxy_source"),
	}
}

func (s *FreeProxyList) Name() string {
	return s.url
}

// Fetch downloads the page and parses every host:port line of the list block.
// Lines that do not parse are skipped.
func (s *FreeProxyList) Fetch(ctx context.Context) ([]entity.ProxyEndpoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch proxy list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch proxy list: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse proxy list page: %w", err)
	}

	block := doc.Find(s.selector).First()
	if block.Length() == 0 {
		return nil, fmt.Errorf("proxy list block %q not found: %w", s.selector, repository.ErrEmptyProxyList)
	}

	proxies := ParseList(block.Text())
	if len(proxies) == 0 {
		return nil, repository.ErrEmptyProxyList
	}
	s.logger.Debug("proxy list fetched", zap.Int("count", len(proxies)))
	return proxies, nil
}

// ParseList parses one endpoint per line, ignoring headers, blanks and duplicates.
func ParseList(text string) []entity.ProxyEndpoint {
	seen := make(map[entity.ProxyEndpoint]struct{})
	var proxies []entity.ProxyEndpoint
	for _, line := range strings.Split(text, "\n") {
		p, err := entity.ParseProxyEndpoint(line)
		if err != nil {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		proxies = append(proxies, p)
	}
	return proxies
}
