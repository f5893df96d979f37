package repository

import (
	"context"

	"github.com/user/listing-monitor/internal/entity"
)

// ProxySource fetches a fresh candidate list of proxies.
type ProxySource interface {
	Name() string
	Fetch(ctx context.Context) ([]entity.ProxyEndpoint, error)
}

// ProxyProber issues a canary request through a proxy and returns the public IP
// the canary service observed.
type ProxyProber interface {
	Probe(ctx context.Context, proxy entity.ProxyEndpoint) (string, error)
}
