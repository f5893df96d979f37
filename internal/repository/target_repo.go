package repository

import (
	"context"
	"time"

	"github.com/user/listing-monitor/internal/entity"
)

// TargetRepository defines the interface for the monitored search pages.
type TargetRepository interface {
	// ListTargets returns every monitored target ordered by id.
	ListTargets(ctx context.Context) ([]*entity.MonitoredTarget, error)
	// InsertTarget stores a new target and returns the id assigned by the store.
	InsertTarget(ctx context.Context, title, url string, lastUpdated *time.Time) (int64, error)
	// MarkChecked records the time of the last completed check.
	MarkChecked(ctx context.Context, id int64, at time.Time) error
}

// Store is everything the engine needs from persistence.
type Store interface {
	TargetRepository
	ItemRepository
	Ping(ctx context.Context) error
	Close()
}
