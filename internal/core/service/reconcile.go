package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rl1809/market-sync/internal/core/domain"
)

// ReconcileStocks joins supplier records against the enumerated offer set.
// Records are taken in feed order; the first record matching a known offer
// wins, later feed duplicates are ignored. Every known offer absent from the
// feed receives an explicit zero-stock update, so the output covers the
// known set exactly once. The caller's set is never mutated.
//
// A record that matches a known offer but fails quantity classification
// aborts the whole pass: publishing a guessed count would corrupt live
// stock.
func ReconcileStocks(records []domain.SupplierRecord, known *domain.OfferSet, now time.Time) ([]domain.StockUpdate, error) {
	pending := known.Clone()
	updates := make([]domain.StockUpdate, 0, known.Len())
	for _, rec := range records {
		if !pending.Has(rec.Code) {
			continue
		}
		count, err := domain.ClassifyQuantity(rec.QuantityText)
		if err != nil {
			return nil, fmt.Errorf("offer %s: %w", rec.Code, err)
		}
		updates = append(updates, domain.StockUpdate{OfferID: rec.Code, Count: count, UpdatedAt: now})
		pending.Remove(rec.Code)
	}
	for _, id := range pending.IDs() {
		updates = append(updates, domain.StockUpdate{OfferID: id, Count: 0, UpdatedAt: now})
	}
	return updates, nil
}

// ReconcilePrices emits a price update for every supplier record matching a
// known offer. Unlike stocks there is no zero-fill: an offer missing from
// the feed keeps its current price, since there is no sensible zero price.
func ReconcilePrices(records []domain.SupplierRecord, known *domain.OfferSet, currency string) ([]domain.PriceUpdate, error) {
	pending := known.Clone()
	var updates []domain.PriceUpdate
	for _, rec := range records {
		if !pending.Has(rec.Code) {
			continue
		}
		digits := domain.NormalizePrice(rec.PriceText)
		amount, err := strconv.Atoi(digits)
		if err != nil {
			return nil, fmt.Errorf("offer %s: %w: %q", rec.Code, domain.ErrMalformedPrice, rec.PriceText)
		}
		updates = append(updates, domain.PriceUpdate{OfferID: rec.Code, Amount: amount, Currency: currency})
		pending.Remove(rec.Code)
	}
	return updates, nil
}
