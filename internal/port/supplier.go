package port

import (
	"context"

	"github.com/rl1809/market-sync/internal/core/domain"
)

// SupplierFeed produces the authoritative inventory snapshot. Records carry
// raw quantity/price text; classification happens in the core.
type SupplierFeed interface {
	FetchInventorySnapshot(ctx context.Context) ([]domain.SupplierRecord, error)
}
