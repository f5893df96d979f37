package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrTimeout is a connection or read timeout while fetching through a proxy.
	ErrTimeout = errors.New("request timed out")
	// ErrProxyFailure is any other transport failure attributable to the proxy.
	ErrProxyFailure = errors.New("proxy request failed")
	// ErrPoolEmpty means no healthy proxy is available right now.
	ErrPoolEmpty = errors.New("proxy pool is empty")
	// ErrEmptyProxyList means a proxy source answered without a single usable entry.
	ErrEmptyProxyList = errors.New("proxy source returned no proxies")
	// ErrInvalidTargetURL rejects malformed search URLs.
	ErrInvalidTargetURL = errors.New("invalid target URL")
	// ErrNotFound is returned by lookups that match nothing.
	ErrNotFound = errors.New("not found")
)

// Reasons carried by PageStructureError.
const (
	ReasonStaleBrowser = "stale-browser"
	ReasonUnknown      = "unknown"
	ReasonMissingField = "missing-field"
)

// PageStructureError means the site served a page of an unexpected shape.
type PageStructureError struct {
	Page   string // "search" or "item"
	Reason string
}

func (e *PageStructureError) Error() string {
	return fmt.Sprintf("unexpected %s page structure: %s", e.Page, e.Reason)
}

// NewPageStructureError builds a PageStructureError.
func NewPageStructureError(page, reason string) error {
	return &PageStructureError{Page: page, Reason: reason}
}

// IsPageStructure reports whether err is, or wraps, a PageStructureError.
func IsPageStructure(err error) bool {
	var pse *PageStructureError
	return errors.As(err, &pse)
}

// IsTransport reports whether err is a network-level failure that should make
// the caller drop the proxy and try another one.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrProxyFailure)
}

// ErrorType classifies an error into a short metric label.
func ErrorType(err error) string {
	var pse *PageStructureError
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrProxyFailure):
		return "proxy"
	case errors.Is(err, ErrPoolEmpty):
		return "pool_empty"
	case errors.As(err, &pse):
		return "structure_" + pse.Reason
	default:
		return "unknown"
	}
}

// CheckStatus maps an HTTP status seen through a proxy to an error. Statuses a
// proxy or an anti-bot layer typically answer with count as proxy failures, any
// other non-2xx as an unexpected page.
func CheckStatus(status int) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == 403, status == 407, status == 429, status >= 500:
		return fmt.Errorf("status %d: %w", status, ErrProxyFailure)
	default:
		return &PageStructureError{Page: "response", Reason: fmt.Sprintf("http-%d", status)}
	}
}

// TransportError wraps a failed fetch as ErrTimeout or ErrProxyFailure.
func TransportError(err error) error {
	if err == nil || IsTransport(err) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrProxyFailure, err)
}
