package port

import (
	"context"
	"time"

	"github.com/rl1809/market-sync/internal/core/domain"
)

type SyncJournal interface {
	// CreateRun persists the start of a sync run
	CreateRun(ctx context.Context, run domain.SyncRun) error

	// RecordPairResult persists one pair's final state and batch counts
	RecordPairResult(ctx context.Context, result domain.PairResult) error

	// FinishRun stamps the run's completion time
	FinishRun(ctx context.Context, runID string, finishedAt time.Time) error
}
