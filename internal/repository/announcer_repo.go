package repository

import "context"

// TargetAnnouncer is a FIFO of target ids added by another process.
type TargetAnnouncer interface {
	// Announce pushes the id of a freshly stored target.
	Announce(ctx context.Context, targetID int64) error
	// Drain removes and returns every pending announcement.
	Drain(ctx context.Context) ([]int64, error)
}
