package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/listing-monitor/internal/entity"
	"github.com/user/listing-monitor/pkg/utils"
)

const (
	candidateKeyPrefix = "monitor:candidate:"
	notifyKeyPrefix    = "monitor:notified:"
)

// ItemCacheImpl provides a concrete implementation for the ItemCache interface using Redis.
type ItemCacheImpl struct {
	client *redis.Client
}

// NewItemCache creates a new instance of ItemCacheImpl.
func NewItemCache(client *redis.Client) *ItemCacheImpl {
	return &ItemCacheImpl{client: client}
}

// candidateKey creates a consistent Redis key for a candidate URL by hashing it.
func (r *ItemCacheImpl) candidateKey(url string) string {
	return fmt.Sprintf("%s%s", candidateKeyPrefix, utils.HashURL(url))
}

// LookupCandidate returns what a candidate URL resolved to, if it is still cached.
func (r *ItemCacheImpl) LookupCandidate(ctx context.Context, url string) (*entity.ItemDetails, bool, error) {
	raw, err := r.client.Get(ctx, r.candidateKey(url)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var details entity.ItemDetails
	if err := json.Unmarshal(raw, &details); err != nil {
		return nil, false, fmt.Errorf("decode cached candidate: %w", err)
	}
	return &details, true, nil
}

// RememberCandidate caches the resolution of a candidate URL with an expiry.
func (r *ItemCacheImpl) RememberCandidate(ctx context.Context, url string, details entity.ItemDetails, ttl time.Duration) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	// SETEX is atomic and sets the key with an expiry.
	return r.client.SetEx(ctx, r.candidateKey(url), raw, ttl).Err()
}

// ClaimNotification sets the notify marker for an item only if nobody set it before.
func (r *ItemCacheImpl) ClaimNotification(ctx context.Context, id int64, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, notifyKeyPrefix+strconv.FormatInt(id, 10), "1", ttl).Result()
}
