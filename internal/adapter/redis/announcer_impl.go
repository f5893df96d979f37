package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const announceQueueKey = "monitor:targets:added"

// AnnouncerImpl provides a concrete implementation for the TargetAnnouncer interface using Redis Lists.
type AnnouncerImpl struct {
	client *redis.Client
}

// NewAnnouncer creates a new instance of AnnouncerImpl.
func NewAnnouncer(client *redis.Client) *AnnouncerImpl {
	return &AnnouncerImpl{client: client}
}

// Announce adds a target id to the left side of the Redis list (acting as a queue).
func (r *AnnouncerImpl) Announce(ctx context.Context, targetID int64) error {
	return r.client.LPush(ctx, announceQueueKey, targetID).Err()
}

// Drain pops ids from the right side of the list until it is empty.
func (r *AnnouncerImpl) Drain(ctx context.Context) ([]int64, error) {
	var ids []int64
	for {
		v, err := r.client.RPop(ctx, announceQueueKey).Result()
		if errors.Is(err, redis.Nil) {
			return ids, nil
		}
		if err != nil {
			return ids, err
		}
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// Not ours; drop it so the queue does not wedge.
			continue
		}
		ids = append(ids, id)
	}
}
