package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/internal/repository"
)

func endpoints(n int) []entity.ProxyEndpoint {
	out := make([]entity.ProxyEndpoint, n)
	for i := range out {
		out[i] = entity.ProxyEndpoint{Host: fmt.Sprintf("10.0.0.%d", i+1), Port: 8080}
	}
	return out
}

// fakeSource returns the scripted lists one after another, repeating the last.
type fakeSource struct {
	mu    sync.Mutex
	lists [][]entity.ProxyEndpoint
	errs  []error
	calls int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Fetch(context.Context) ([]entity.ProxyEndpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	if err != nil {
		return nil, err
	}
	if len(s.lists) == 0 {
		return nil, nil
	}
	if i >= len(s.lists) {
		i = len(s.lists) - 1
	}
	out := make([]entity.ProxyEndpoint, len(s.lists[i]))
	copy(out, s.lists[i])
	return out, nil
}

// fakeProber answers with the proxy's own host unless told otherwise.
type fakeProber struct {
	mu       sync.Mutex
	observed map[entity.ProxyEndpoint]string
	failing  map[entity.ProxyEndpoint]bool
	delay    time.Duration

	inFlight    int
	maxInFlight int
}

func (p *fakeProber) Probe(ctx context.Context, proxy entity.ProxyEndpoint) (string, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxInFlight {
		p.maxInFlight = p.inFlight
	}
	ip, mapped := p.observed[proxy]
	fail := p.failing[proxy]
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if fail {
		return "", errors.New("connection refused")
	}
	if mapped {
		return ip, nil
	}
	return proxy.Host, nil
}

// scriptedSessions answers the n-th Get with responses[n]; the last response
// repeats. Every proxy a session was bound to is recorded.
type scriptedSessions struct {
	mu        sync.Mutex
	responses []func(url string) (*entity.Page, error)
	calls     int
	proxies   []entity.ProxyEndpoint
	urls      []string
}

func (s *scriptedSessions) NewSession(proxy entity.ProxyEndpoint) (repository.Session, error) {
	return &scriptedSession{parent: s, proxy: proxy}, nil
}

type scriptedSession struct {
	parent *scriptedSessions
	proxy  entity.ProxyEndpoint
}

func (s *scriptedSession) Get(_ context.Context, url string) (*entity.Page, error) {
	p := s.parent
	p.mu.Lock()
	i := p.calls
	p.calls++
	p.proxies = append(p.proxies, s.proxy)
	p.urls = append(p.urls, url)
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	respond := p.responses[i]
	p.mu.Unlock()
	return respond(url)
}

func (s *scriptedSession) Close() error { return nil }

func body(b string) func(string) (*entity.Page, error) {
	return func(url string) (*entity.Page, error) {
		return &entity.Page{URL: url, StatusCode: 200, Body: []byte(b)}, nil
	}
}

func failWith(err error) func(string) (*entity.Page, error) {
	return func(string) (*entity.Page, error) { return nil, err }
}

// fakeSearchParser understands three bodies: "results", "stale" and anything else.
type fakeSearchParser struct {
	candidates []string
}

func (p *fakeSearchParser) CheckSearchPage(b []byte) error {
	switch string(b) {
	case "results":
		return nil
	case "stale":
		return repository.NewPageStructureError("search", repository.ReasonStaleBrowser)
	default:
		return repository.NewPageStructureError("search", repository.ReasonUnknown)
	}
}

func (p *fakeSearchParser) ExtractCandidates(string, []byte) ([]string, error) {
	return p.candidates, nil
}

// fakeFetcher resolves candidate URLs from a table.
type fakeFetcher struct {
	mu    sync.Mutex
	items map[string]entity.ItemDetails
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Resolve(_ context.Context, candidateURL string, parent int64) (*entity.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, candidateURL)
	if err, ok := f.errs[candidateURL]; ok {
		return nil, err
	}
	d, ok := f.items[candidateURL]
	if !ok {
		return nil, repository.NewPageStructureError("item", repository.ReasonUnknown)
	}
	return &entity.Item{ID: d.ID, URL: candidateURL, Title: d.Title, ParentTargetID: parent}, nil
}

// fakeStore is an in-memory repository.Store.
type fakeStore struct {
	mu       sync.Mutex
	targets  []*entity.MonitoredTarget
	known    map[int64]bool
	inserted []*entity.Item
	checked  map[int64]time.Time
	nextID   int64

	insertErr error
	existsErr error
}

func newFakeStore(knownIDs ...int64) *fakeStore {
	s := &fakeStore{known: make(map[int64]bool), checked: make(map[int64]time.Time)}
	for _, id := range knownIDs {
		s.known[id] = true
	}
	return s
}

func (s *fakeStore) ListTargets(context.Context) ([]*entity.MonitoredTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.MonitoredTarget, len(s.targets))
	copy(out, s.targets)
	return out, nil
}

func (s *fakeStore) InsertTarget(_ context.Context, title, url string, lastUpdated *time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.targets = append(s.targets, &entity.MonitoredTarget{ID: s.nextID, Title: title, URL: url, LastUpdated: lastUpdated})
	return s.nextID, nil
}

func (s *fakeStore) MarkChecked(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checked[id] = at
	return nil
}

func (s *fakeStore) ItemExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	return s.known[id], nil
}

func (s *fakeStore) InsertItem(_ context.Context, item *entity.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, item)
	s.known[item.ID] = true
	return nil
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close()                     {}

type sentNotification struct {
	title, url string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (n *fakeNotifier) Notify(_ context.Context, title, url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{title, url})
	return n.err
}
