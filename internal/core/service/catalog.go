package service

import (
	"context"
	"fmt"

	"github.com/rl1809/market-sync/internal/core/domain"
	"github.com/rl1809/market-sync/internal/port"
)

// maxListingPages caps either pagination loop. A server that keeps handing
// out tokens or never reaches its advertised total must not spin forever.
const maxListingPages = 10000

// OfferLister drains a marketplace catalog listing to completion.
type OfferLister interface {
	ListOfferIDs(ctx context.Context) ([]string, error)
}

// CursorCatalog drains an opaque-cursor listing: fetch with the last token
// until the server returns an empty one.
type CursorCatalog struct {
	Fetcher port.CursorPageFetcher
}

func (c CursorCatalog) ListOfferIDs(ctx context.Context) ([]string, error) {
	var (
		ids   []string
		token string
	)
	for page := 0; page < maxListingPages; page++ {
		p, err := c.Fetcher.FetchPage(ctx, token)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.IDs...)
		if p.NextPageToken == "" {
			return ids, nil
		}
		if len(p.IDs) == 0 {
			return nil, fmt.Errorf("%w: empty page with next page token %q", domain.ErrBadResponse, p.NextPageToken)
		}
		token = p.NextPageToken
	}
	return nil, fmt.Errorf("%w: cursor listing did not terminate within %d pages", domain.ErrBadResponse, maxListingPages)
}

// OffsetCatalog drains an offset/count listing: fetch with the last seen id
// until the accumulated count reaches the advertised total.
type OffsetCatalog struct {
	Fetcher port.OffsetPageFetcher
}

func (c OffsetCatalog) ListOfferIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		lastID string
	)
	for page := 0; page < maxListingPages; page++ {
		p, err := c.Fetcher.FetchPage(ctx, lastID)
		if err != nil {
			return nil, err
		}
		ids = append(ids, p.IDs...)
		if len(ids) >= p.Total {
			return ids, nil
		}
		if len(p.IDs) == 0 {
			return nil, fmt.Errorf("%w: empty page at %d of advertised total %d", domain.ErrBadResponse, len(ids), p.Total)
		}
		lastID = p.LastID
	}
	return nil, fmt.Errorf("%w: offset listing did not terminate within %d pages", domain.ErrBadResponse, maxListingPages)
}
