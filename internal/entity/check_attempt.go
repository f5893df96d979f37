package entity

import "time"

// CheckState is a step of a search check cycle.
type CheckState string

const (
	StateFetching   CheckState = "fetching"
	StateValidating CheckState = "validating"
	StateExtracting CheckState = "extracting"
	StateDiffing    CheckState = "diffing"
	StateRetrying   CheckState = "retrying"
	StateDone       CheckState = "done"
	StateAbandoned  CheckState = "abandoned"
	// StateDeferred ends a cycle that could not get a proxy.
	StateDeferred CheckState = "deferred"
)

// CheckAttempt is the state carried across the retry chain of one check cycle.
// It is never persisted.
type CheckAttempt struct {
	CycleID  string
	Target   *MonitoredTarget
	Proxy    ProxyEndpoint
	TryCount int
}

// CycleReport summarises a finished check cycle.
type CycleReport struct {
	CycleID    string
	TargetID   int64
	Outcome    CheckState // StateDone, StateAbandoned or StateDeferred
	Attempts   int
	Candidates int
	NewItems   int
	Duration   time.Duration
	Err        error
}
