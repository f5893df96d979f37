package repository

import (
	"context"

	"github.com/user/listing-monitor/internal/entity"
)

// ItemRepository defines the interface for storing discovered items.
type ItemRepository interface {
	// ItemExists reports whether an item with the site-assigned id is stored.
	ItemExists(ctx context.Context, id int64) (bool, error)
	// InsertItem stores an item. Inserting an id that already exists is a no-op.
	InsertItem(ctx context.Context, item *entity.Item) error
}
