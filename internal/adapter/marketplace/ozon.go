package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rl1809/market-sync/internal/core/domain"
	"github.com/rl1809/market-sync/internal/port"
)

const (
	ozonListLimit     = 1000
	ozonStockBatchMax = 100
	ozonPriceBatchMax = 1000
)

// OzonClient talks to the Ozon Seller API for one seller account. It
// implements port.OffsetPageFetcher for catalog enumeration and
// port.MarketplaceGateway for bulk updates.
type OzonClient struct {
	baseURL  string
	clientID string
	apiKey   string
	http     *http.Client
}

func NewOzonClient(baseURL, clientID, apiKey string, client *http.Client) *OzonClient {
	return &OzonClient{
		baseURL:  baseURL,
		clientID: clientID,
		apiKey:   apiKey,
		http:     client,
	}
}

func (c *OzonClient) Limits() domain.BatchLimits {
	return domain.BatchLimits{Stock: ozonStockBatchMax, Price: ozonPriceBatchMax}
}

func (c *OzonClient) header() http.Header {
	return http.Header{
		"Client-Id": {c.clientID},
		"Api-Key":   {c.apiKey},
	}
}

type ozonListFilter struct {
	Visibility string `json:"visibility"`
}

type ozonListRequest struct {
	Filter ozonListFilter `json:"filter"`
	LastID string         `json:"last_id"`
	Limit  int            `json:"limit"`
}

type ozonListItem struct {
	OfferID string `json:"offer_id"`
}

type ozonListResult struct {
	Items  []ozonListItem `json:"items"`
	Total  int            `json:"total"`
	LastID string         `json:"last_id"`
}

type ozonListResponse struct {
	Result *ozonListResult `json:"result"`
}

// FetchPage implements port.OffsetPageFetcher over POST /v2/product/list.
func (c *OzonClient) FetchPage(ctx context.Context, lastID string) (port.OffsetPage, error) {
	req := ozonListRequest{
		Filter: ozonListFilter{Visibility: "ALL"},
		LastID: lastID,
		Limit:  ozonListLimit,
	}
	var resp ozonListResponse
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+"/v2/product/list", c.header(), req, &resp); err != nil {
		return port.OffsetPage{}, fmt.Errorf("ozon product list: %w", err)
	}
	if resp.Result == nil {
		return port.OffsetPage{}, fmt.Errorf("ozon product list: %w: missing result", domain.ErrBadResponse)
	}

	page := port.OffsetPage{
		IDs:    make([]string, 0, len(resp.Result.Items)),
		Total:  resp.Result.Total,
		LastID: resp.Result.LastID,
	}
	for _, item := range resp.Result.Items {
		page.IDs = append(page.IDs, item.OfferID)
	}
	return page, nil
}

type ozonStockItem struct {
	OfferID string `json:"offer_id"`
	Stock   int    `json:"stock"`
}

type ozonStocksRequest struct {
	Stocks []ozonStockItem `json:"stocks"`
}

// PushStockBatch submits one batch to POST /v2/products/stocks. Ozon stock
// records carry no timestamp.
func (c *OzonClient) PushStockBatch(ctx context.Context, batch []domain.StockUpdate) error {
	req := ozonStocksRequest{Stocks: make([]ozonStockItem, 0, len(batch))}
	for _, u := range batch {
		req.Stocks = append(req.Stocks, ozonStockItem{OfferID: u.OfferID, Stock: u.Count})
	}
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+"/v2/products/stocks", c.header(), req, nil); err != nil {
		return fmt.Errorf("ozon stocks update: %w", err)
	}
	return nil
}

type ozonPriceItem struct {
	AutoActionEnabled string `json:"auto_action_enabled"`
	CurrencyCode      string `json:"currency_code"`
	OfferID           string `json:"offer_id"`
	OldPrice          string `json:"old_price"`
	Price             string `json:"price"`
}

type ozonPricesRequest struct {
	Prices []ozonPriceItem `json:"prices"`
}

// PushPriceBatch submits one batch to POST /v1/product/import/prices. The
// price travels as a digit string.
func (c *OzonClient) PushPriceBatch(ctx context.Context, batch []domain.PriceUpdate) error {
	req := ozonPricesRequest{Prices: make([]ozonPriceItem, 0, len(batch))}
	for _, u := range batch {
		req.Prices = append(req.Prices, ozonPriceItem{
			AutoActionEnabled: "UNKNOWN",
			CurrencyCode:      u.Currency,
			OfferID:           u.OfferID,
			OldPrice:          "0",
			Price:             strconv.Itoa(u.Amount),
		})
	}
	if err := doJSON(ctx, c.http, http.MethodPost, c.baseURL+"/v1/product/import/prices", c.header(), req, nil); err != nil {
		return fmt.Errorf("ozon prices update: %w", err)
	}
	return nil
}
