package port

import (
	"context"

	"github.com/rl1809/market-sync/internal/core/domain"
)

// CursorPage is one page of an opaque-cursor listing. An empty NextPageToken
// terminates the listing.
type CursorPage struct {
	IDs           []string
	NextPageToken string
}

// OffsetPage is one page of an offset/count listing. The listing is complete
// once the accumulated item count reaches Total.
type OffsetPage struct {
	IDs    []string
	Total  int
	LastID string
}

// CursorPageFetcher fetches one page of a cursor-paged catalog listing.
type CursorPageFetcher interface {
	FetchPage(ctx context.Context, pageToken string) (CursorPage, error)
}

// OffsetPageFetcher fetches one page of an offset/count-paged catalog
// listing.
type OffsetPageFetcher interface {
	FetchPage(ctx context.Context, lastID string) (OffsetPage, error)
}

// MarketplaceGateway submits one update batch per call on behalf of a single
// marketplace account. Callers never exceed Limits; implementations map
// transport failures onto the domain transport errors and protocol-shape
// violations onto domain.ErrBadResponse.
type MarketplaceGateway interface {
	// PushStockBatch submits one batch of stock updates.
	PushStockBatch(ctx context.Context, batch []domain.StockUpdate) error

	// PushPriceBatch submits one batch of price updates.
	PushPriceBatch(ctx context.Context, batch []domain.PriceUpdate) error

	// Limits reports the marketplace's per-endpoint batch size caps.
	Limits() domain.BatchLimits
}
