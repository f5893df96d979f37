package repository

import (
	"context"

	"github.com/user/listing-monitor/internal/entity"
)

// Session fetches pages through the proxy it was bound to.
type Session interface {
	// Get fetches a URL. Timeouts are reported as ErrTimeout, other transport
	// failures as ErrProxyFailure.
	Get(ctx context.Context, url string) (*entity.Page, error)
	// Close releases the underlying client.
	Close() error
}

// SessionProvider binds a fresh outbound client to one proxy. Callers must ask
// for a new session on every check cycle and never keep one across cycles.
type SessionProvider interface {
	NewSession(proxy entity.ProxyEndpoint) (Session, error)
}
