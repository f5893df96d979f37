package memory

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/user/listing-monitor/internal/entity"
)

// ItemCache is an in-process repository.ItemCache used when Redis is disabled.
// Expired entries are purged on every write, so entries for candidates that
// never show up again do not pile up.
type ItemCache struct {
	candidates *ttlcache.Cache[string, entity.ItemDetails]
	claims     *ttlcache.Cache[int64, struct{}]
}

func NewItemCache() *ItemCache {
	return &ItemCache{
		// Reads must not extend an entry's lifetime, same as a Redis GET.
		candidates: ttlcache.New(ttlcache.WithDisableTouchOnHit[string, entity.ItemDetails]()),
		claims:     ttlcache.New(ttlcache.WithDisableTouchOnHit[int64, struct{}]()),
	}
}

func (c *ItemCache) LookupCandidate(_ context.Context, url string) (*entity.ItemDetails, bool, error) {
	item := c.candidates.Get(url)
	if item == nil || item.IsExpired() {
		return nil, false, nil
	}
	details := item.Value()
	return &details, true, nil
}

func (c *ItemCache) RememberCandidate(_ context.Context, url string, details entity.ItemDetails, ttl time.Duration) error {
	c.candidates.DeleteExpired()
	c.candidates.Set(url, details, ttl)
	return nil
}

// ClaimNotification behaves like SET NX with an expiry.
func (c *ItemCache) ClaimNotification(_ context.Context, id int64, ttl time.Duration) (bool, error) {
	c.claims.DeleteExpired()
	_, loaded := c.claims.GetOrSet(id, struct{}{}, ttlcache.WithTTL[int64, struct{}](ttl))
	return !loaded, nil
}

// Len reports how many candidates and claims are held, expired or not.
func (c *ItemCache) Len() (candidates, claims int) {
	return c.candidates.Len(), c.claims.Len()
}
