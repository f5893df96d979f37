package repository

import "context"

// Notifier tells the operator about a new item.
type Notifier interface {
	Notify(ctx context.Context, title, url string) error
}
