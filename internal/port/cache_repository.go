package port

import (
	"context"
	"time"

	"github.com/rl1809/market-sync/internal/core/domain"
)

type CacheRepository interface {
	// GetSnapshot returns a previously cached supplier snapshot, ok=false on miss
	GetSnapshot(ctx context.Context, key string) (records []domain.SupplierRecord, ok bool, err error)

	// PutSnapshot caches a supplier snapshot under key for ttl
	PutSnapshot(ctx context.Context, key string, records []domain.SupplierRecord, ttl time.Duration) error

	// MarkBatch sets a key for batch idempotency, returns false if already exists
	MarkBatch(ctx context.Context, key string) (bool, error)
}
