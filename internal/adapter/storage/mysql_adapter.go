package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/market-sync/internal/core/domain"
)

var ErrRunNotFound = errors.New("sync run not found")

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// CreateRun persists the run start. A re-executed run reuses its id; the
// original started_at is kept.
func (m *MySQLAdapter) CreateRun(ctx context.Context, run domain.SyncRun) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, started_at)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE started_at = started_at`,
		run.ID, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sync run: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RecordPairResult(ctx context.Context, res domain.PairResult) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO sync_pair_results
			(run_id, marketplace, campaign, state, stock_batches, price_batches, error_kind, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.Marketplace, res.Campaign, string(res.State),
		res.StockBatches, res.PriceBatches, res.ErrorKind, res.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert pair result: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE sync_runs SET finished_at = ? WHERE id = ?`,
		finishedAt, runID,
	)
	if err != nil {
		return fmt.Errorf("update sync run: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrRunNotFound
	}
	return nil
}
