package domain

import "time"

// PairState is the lifecycle state of one (marketplace, campaign) pair
// within a sync run.
type PairState string

const (
	StateEnumerating PairState = "enumerating"
	StateReconciling PairState = "reconciling"
	StateSubmitting  PairState = "submitting"
	StateDone        PairState = "done"
	StateAborted     PairState = "aborted"
)

// SyncRun is one execution of the full synchronization cycle across all
// configured pairs.
type SyncRun struct {
	ID        string
	StartedAt time.Time
}

// PairResult is the journaled outcome of one pair: either StateDone with
// batch counts, or StateAborted with the error kind that stopped it.
type PairResult struct {
	RunID        string
	Marketplace  string
	Campaign     string
	State        PairState
	StockBatches int
	PriceBatches int
	ErrorKind    string
	FinishedAt   time.Time
}
