package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/user/listing-monitor/internal/delivery/http/handler"
	"github.com/user/listing-monitor/internal/delivery/http/response"
	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

type fakeTargets struct {
	list   []*entity.MonitoredTarget
	addErr error
}

func (f *fakeTargets) AddTarget(_ context.Context, rawURL, title string) (*entity.MonitoredTarget, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	t := &entity.MonitoredTarget{ID: int64(len(f.list) + 1), Title: title, URL: rawURL}
	f.list = append(f.list, t)
	return t, nil
}

func (f *fakeTargets) Targets() []*entity.MonitoredTarget { return f.list }

type fakeProxies []entity.ProxyEndpoint

func (f fakeProxies) Snapshot() []entity.ProxyEndpoint { return f }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newTestRouter(t *testing.T, targets *fakeTargets, store fakePinger) http.Handler {
	t.Helper()
	proxies := fakeProxies{{Host: "10.0.0.1", Port: 8080}, {Host: "10.0.0.2", Port: 3128}}
	logger := zaptest.NewLogger(t)
	return New(handler.NewHandler(targets, proxies, store, logger), logger)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		storeErr   error
		wantStatus int
		wantStore  string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"store down", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeTargets{}, fakePinger{err: tt.storeErr})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp response.HealthResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Store != tt.wantStore || resp.ProxiesLive != 2 {
				t.Errorf("health = %+v", resp)
			}
		})
	}
}

func TestAddTarget(t *testing.T) {
	targets := &fakeTargets{}
	r := newTestRouter(t, targets, fakePinger{})

	body := strings.NewReader(`{"url":"https://site.example/s","title":"bikes"}`)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/targets", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var resp response.TargetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.ID != 1 || resp.Title != "bikes" || resp.URL != "https://site.example/s" {
		t.Errorf("response = %+v", resp)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/targets", nil))
	var list []response.TargetResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("targets = %+v, want one", list)
	}
}

func TestAddTargetRejects(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		addErr     error
		wantStatus int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"missing url", `{"title":"x"}`, nil, http.StatusBadRequest},
		{"invalid url", `{"url":"ftp://x"}`, repository.ErrInvalidTargetURL, http.StatusBadRequest},
		{"store failure", `{"url":"https://site.example/s"}`, errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeTargets{addErr: tt.addErr}, fakePinger{})
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/targets", strings.NewReader(tt.body)))
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestListProxies(t *testing.T) {
	r := newTestRouter(t, &fakeTargets{}, fakePinger{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/proxies", nil))

	var resp response.ProxiesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Live != 2 || resp.Proxies[0] != "10.0.0.1:8080" || resp.Proxies[1] != "10.0.0.2:3128" {
		t.Errorf("proxies = %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t, &fakeTargets{}, fakePinger{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
