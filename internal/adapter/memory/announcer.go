package memory

import (
	"context"
	"sync"
)

// Announcer is an in-process repository.TargetAnnouncer. It only sees
// announcements made inside the same process.
type Announcer struct {
	mu  sync.Mutex
	ids []int64
}

func NewAnnouncer() *Announcer {
	return &Announcer{}
}

func (a *Announcer) Announce(_ context.Context, targetID int64) error {
	a.mu.Lock()
	a.ids = append(a.ids, targetID)
	a.mu.Unlock()
	return nil
}

func (a *Announcer) Drain(_ context.Context) ([]int64, error) {
	a.mu.Lock()
	ids := a.ids
	a.ids = nil
	a.mu.Unlock()
	return ids, nil
}
