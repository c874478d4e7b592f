package domain

import (
	"fmt"
	"time"
)

// StockUpdate sets the published stock count for one offer. UpdatedAt is
// serialized by marketplaces whose stock endpoint requires a timestamp and
// ignored by the others.
type StockUpdate struct {
	OfferID   string
	Count     int
	UpdatedAt time.Time
}

// PriceUpdate sets the published price for one offer. Amount is the
// normalized integer price in whole units of Currency.
type PriceUpdate struct {
	OfferID  string
	Amount   int
	Currency string
}

// BatchLimits carries a marketplace's per-endpoint maximum batch sizes.
type BatchLimits struct {
	Stock int
	Price int
}

// Chunk splits items into contiguous runs of at most size elements,
// preserving order. The final chunk may be shorter than size.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
	}
	var chunks [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks, nil
}
