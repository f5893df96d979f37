package canary

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/user/listing-monitor/internal/entity"
)

// IPify probes a proxy by asking a "what is my IP" service, through the proxy,
// which address it sees.
type IPify struct {
	canaryURL string
	timeout   time.Duration
}

// NewIPify creates a prober. timeout bounds each probe.
func NewIPify(canaryURL string, timeout time.Duration) *IPify {
	return &IPify{canaryURL: canaryURL, timeout: timeout}
}

// Probe returns the public IP the canary service observed through proxy.
func (c *IPify) Probe(ctx context.Context, proxy entity.ProxyEndpoint) (string, error) {
	proxyURL, err := url.Parse(proxy.URL())
	if err != nil {
		return "", err
	}
	// A fresh transport per probe; sharing one would pool connections across proxies.
	transport := &http.Transport{
		Proxy:             http.ProxyURL(proxyURL),
		DisableKeepAlives: true,
	}
	defer transport.CloseIdleConnections()
	client := &http.Client{Transport: transport, Timeout: c.timeout}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.canaryURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("canary answered %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
