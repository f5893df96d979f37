package entity

import "time"

// MonitoredTarget mirrors the `monitored_targets` table: one search page under watch.
type MonitoredTarget struct {
	ID          int64
	Title       string
	URL         string
	LastUpdated *time.Time // nil until the first completed check
}
