package repository

import (
	"context"
	"time"

	"github.com/user/listing-monitor/internal/entity"
)

// ItemCache remembers what candidate links resolved to, and which items have
// already been announced to the operator.
type ItemCache interface {
	// LookupCandidate returns the details a candidate URL resolved to earlier.
	LookupCandidate(ctx context.Context, url string) (*entity.ItemDetails, bool, error)
	// RememberCandidate stores the resolution of a candidate URL for ttl.
	RememberCandidate(ctx context.Context, url string, details entity.ItemDetails, ttl time.Duration) error
	// ClaimNotification returns true for the first caller that claims the item id.
	ClaimNotification(ctx context.Context, id int64, ttl time.Duration) (bool, error)
}
