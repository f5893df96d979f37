package usecase

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/time/rate"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

type fakeItemParser struct{}

func (fakeItemParser) CheckItemPage(b []byte) error {
	switch string(b) {
	case "item":
		return nil
	case "stale":
		return repository.NewPageStructureError("item", repository.ReasonStaleBrowser)
	default:
		return repository.NewPageStructureError("item", repository.ReasonUnknown)
	}
}

func (fakeItemParser) ExtractItem([]byte) (*entity.ItemDetails, error) {
	return &entity.ItemDetails{ID: 555, Title: "Bike"}, nil
}

func newTestFetcher(t *testing.T, proxies int, limiter *rate.Limiter, responses ...func(string) (*entity.Page, error)) (ItemFetcher, ProxyPool, *scriptedSessions) {
	t.Helper()
	pool := newTestPool(t, &fakeSource{lists: [][]entity.ProxyEndpoint{endpoints(proxies)}}, nil, 1)
	if proxies > 0 {
		if err := pool.Refresh(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	sessions := &scriptedSessions{responses: responses}
	return NewItemFetcher(pool, sessions, fakeItemParser{}, limiter, time.Second, zaptest.NewLogger(t)), pool, sessions
}

func TestResolve(t *testing.T) {
	fetcher, _, sessions := newTestFetcher(t, 2, nil, body("item"))

	item, err := fetcher.Resolve(context.Background(), "https://site.example/d/bike", 4)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if item.ID != 555 || item.Title != "Bike" || item.URL != "https://site.example/d/bike" || item.ParentTargetID != 4 {
		t.Errorf("Resolve() = %+v", item)
	}
	if item.UploadTimestamp.IsZero() {
		t.Error("UploadTimestamp not set")
	}
	if sessions.urls[0] != "https://site.example/d/bike" {
		t.Errorf("fetched %q", sessions.urls[0])
	}
}

func TestResolveDoesNotRetry(t *testing.T) {
	fetcher, pool, sessions := newTestFetcher(t, 3, nil, failWith(repository.ErrTimeout), body("item"))

	_, err := fetcher.Resolve(context.Background(), "https://site.example/d/bike", 1)
	if !errors.Is(err, repository.ErrTimeout) {
		t.Fatalf("Resolve() error = %v, want ErrTimeout", err)
	}
	if sessions.calls != 1 {
		t.Errorf("fetches = %d, want 1", sessions.calls)
	}
	if slices.Contains(pool.Snapshot(), sessions.proxies[0]) {
		t.Error("proxy that timed out was not evicted")
	}
}

func TestResolveStructureErrorKeepsProxy(t *testing.T) {
	fetcher, pool, sessions := newTestFetcher(t, 2, nil, body("stale"))

	_, err := fetcher.Resolve(context.Background(), "https://site.example/d/bike", 1)
	if !repository.IsPageStructure(err) {
		t.Fatalf("Resolve() error = %v, want PageStructureError", err)
	}
	if !slices.Contains(pool.Snapshot(), sessions.proxies[0]) {
		t.Error("proxy evicted for a page structure error")
	}
}

func TestResolveEmptyPool(t *testing.T) {
	fetcher, _, _ := newTestFetcher(t, 0, nil, body("item"))
	if _, err := fetcher.Resolve(context.Background(), "https://site.example/d/bike", 1); !errors.Is(err, repository.ErrPoolEmpty) {
		t.Fatalf("Resolve() error = %v, want ErrPoolEmpty", err)
	}
}

func TestResolveHonoursLimiter(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	fetcher, _, _ := newTestFetcher(t, 2, limiter, body("item"))

	if _, err := fetcher.Resolve(context.Background(), "https://site.example/1", 1); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := fetcher.Resolve(ctx, "https://site.example/2", 1); err == nil {
		t.Fatal("second Resolve() went past an exhausted limiter")
	}
}
