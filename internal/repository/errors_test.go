package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "none"},
		{"timeout", ErrTimeout, "timeout"},
		{"wrapped timeout", fmt.Errorf("get: %w", ErrTimeout), "timeout"},
		{"proxy", ErrProxyFailure, "proxy"},
		{"pool empty", ErrPoolEmpty, "pool_empty"},
		{"stale browser", NewPageStructureError("search", ReasonStaleBrowser), "structure_stale-browser"},
		{"other", fmt.Errorf("boom"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorType(tt.err); got != tt.want {
				t.Errorf("ErrorType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsTransportAndStructure(t *testing.T) {
	pse := fmt.Errorf("check: %w", NewPageStructureError("item", ReasonUnknown))
	if !IsPageStructure(pse) {
		t.Error("wrapped PageStructureError not detected")
	}
	if IsTransport(pse) {
		t.Error("PageStructureError classified as transport failure")
	}
	if !IsTransport(fmt.Errorf("x: %w", ErrProxyFailure)) {
		t.Error("ErrProxyFailure not classified as transport failure")
	}
	if IsPageStructure(ErrTimeout) {
		t.Error("ErrTimeout classified as page structure error")
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		status    int
		wantNil   bool
		transport bool
		reason    string
	}{
		{status: 200, wantNil: true},
		{status: 204, wantNil: true},
		{status: 403, transport: true},
		{status: 407, transport: true},
		{status: 429, transport: true},
		{status: 502, transport: true},
		{status: 404, reason: "http-404"},
		{status: 301, reason: "http-301"},
	}
	for _, tt := range tests {
		err := CheckStatus(tt.status)
		if tt.wantNil {
			if err != nil {
				t.Errorf("CheckStatus(%d) = %v, want nil", tt.status, err)
			}
			continue
		}
		if IsTransport(err) != tt.transport {
			t.Errorf("CheckStatus(%d) transport = %v, want %v", tt.status, IsTransport(err), tt.transport)
		}
		if tt.reason != "" {
			var pse *PageStructureError
			if !errors.As(err, &pse) || pse.Reason != tt.reason {
				t.Errorf("CheckStatus(%d) = %v, want reason %q", tt.status, err, tt.reason)
			}
		}
	}
}

func TestTransportError(t *testing.T) {
	if TransportError(nil) != nil {
		t.Error("TransportError(nil) != nil")
	}
	if err := TransportError(fmt.Errorf("get: %w", context.DeadlineExceeded)); !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline classified as %v", err)
	}
	if err := TransportError(errors.New("connection refused")); !errors.Is(err, ErrProxyFailure) {
		t.Errorf("refused classified as %v", err)
	}
	if err := TransportError(ErrTimeout); err != ErrTimeout {
		t.Errorf("already classified error rewrapped: %v", err)
	}
}
