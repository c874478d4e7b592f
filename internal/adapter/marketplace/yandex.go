package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rl1809/market-sync/internal/core/domain"
	"github.com/rl1809/market-sync/internal/port"
)

const (
	yandexListLimit     = 200
	yandexStockBatchMax = 2000
	yandexPriceBatchMax = 500
)

// YandexClient talks to the Yandex Market partner API for one campaign. It
// implements port.CursorPageFetcher for catalog enumeration and
// port.MarketplaceGateway for bulk updates. Stock records are bound to the
// campaign's warehouse.
type YandexClient struct {
	baseURL     string
	token       string
	campaignID  string
	warehouseID string
	http        *http.Client
}

func NewYandexClient(baseURL, token, campaignID, warehouseID string, client *http.Client) *YandexClient {
	return &YandexClient{
		baseURL:     baseURL,
		token:       token,
		campaignID:  campaignID,
		warehouseID: warehouseID,
		http:        client,
	}
}

func (c *YandexClient) Limits() domain.BatchLimits {
	return domain.BatchLimits{Stock: yandexStockBatchMax, Price: yandexPriceBatchMax}
}

func (c *YandexClient) header() http.Header {
	return http.Header{"Authorization": {"Bearer " + c.token}}
}

func (c *YandexClient) campaignURL(suffix string) string {
	return c.baseURL + "/campaigns/" + url.PathEscape(c.campaignID) + suffix
}

type yandexOffer struct {
	ShopSKU string `json:"shopSku"`
}

type yandexMappingEntry struct {
	Offer yandexOffer `json:"offer"`
}

type yandexPaging struct {
	NextPageToken string `json:"nextPageToken"`
}

type yandexListResult struct {
	OfferMappingEntries []yandexMappingEntry `json:"offerMappingEntries"`
	Paging              *yandexPaging        `json:"paging"`
}

type yandexListResponse struct {
	Result *yandexListResult `json:"result"`
}

// FetchPage implements port.CursorPageFetcher over
// GET /campaigns/{id}/offer-mapping-entries.
func (c *YandexClient) FetchPage(ctx context.Context, pageToken string) (port.CursorPage, error) {
	q := url.Values{"limit": {strconv.Itoa(yandexListLimit)}}
	if pageToken != "" {
		q.Set("page_token", pageToken)
	}

	var resp yandexListResponse
	u := c.campaignURL("/offer-mapping-entries") + "?" + q.Encode()
	if err := doJSON(ctx, c.http, http.MethodGet, u, c.header(), nil, &resp); err != nil {
		return port.CursorPage{}, fmt.Errorf("yandex offer mapping entries: %w", err)
	}
	if resp.Result == nil || resp.Result.Paging == nil {
		return port.CursorPage{}, fmt.Errorf("yandex offer mapping entries: %w: missing result or paging", domain.ErrBadResponse)
	}

	page := port.CursorPage{
		IDs:           make([]string, 0, len(resp.Result.OfferMappingEntries)),
		NextPageToken: resp.Result.Paging.NextPageToken,
	}
	for _, entry := range resp.Result.OfferMappingEntries {
		page.IDs = append(page.IDs, entry.Offer.ShopSKU)
	}
	return page, nil
}

type yandexStockItem struct {
	Count     int    `json:"count"`
	Type      string `json:"type"`
	UpdatedAt string `json:"updatedAt"`
}

type yandexSKU struct {
	SKU         string            `json:"sku"`
	WarehouseID string            `json:"warehouseId"`
	Items       []yandexStockItem `json:"items"`
}

type yandexStocksRequest struct {
	SKUs []yandexSKU `json:"skus"`
}

// PushStockBatch submits one batch to PUT /campaigns/{id}/offers/stocks.
// Every sku carries the campaign warehouse and a single FIT item stamped
// with the update's reconciliation-pass timestamp.
func (c *YandexClient) PushStockBatch(ctx context.Context, batch []domain.StockUpdate) error {
	req := yandexStocksRequest{SKUs: make([]yandexSKU, 0, len(batch))}
	for _, u := range batch {
		req.SKUs = append(req.SKUs, yandexSKU{
			SKU:         u.OfferID,
			WarehouseID: c.warehouseID,
			Items: []yandexStockItem{{
				Count:     u.Count,
				Type:      "FIT",
				UpdatedAt: u.UpdatedAt.UTC().Format(time.RFC3339),
			}},
		})
	}
	if err := doJSON(ctx, c.http, http.MethodPut, c.campaignURL("/offers/stocks"), c.header(), req, nil); err != nil {
		return fmt.Errorf("yandex stocks update: %w", err)
	}
	return nil
}

type yandexPrice struct {
	Value      int    `json:"value"`
	CurrencyID string `json:"currencyId"`
}

type yandexPriceOffer struct {
	ID    string      `json:"id"`
	Price yandexPrice `json:"price"`
}

type yandexPricesRequest struct {
	Offers []yandexPriceOffer `json:"offers"`
}

// PushPriceBatch submits one batch to POST /campaigns/{id}/offer-prices/updates.
func (c *YandexClient) PushPriceBatch(ctx context.Context, batch []domain.PriceUpdate) error {
	req := yandexPricesRequest{Offers: make([]yandexPriceOffer, 0, len(batch))}
	for _, u := range batch {
		req.Offers = append(req.Offers, yandexPriceOffer{
			ID:    u.OfferID,
			Price: yandexPrice{Value: u.Amount, CurrencyID: u.Currency},
		})
	}
	if err := doJSON(ctx, c.http, http.MethodPost, c.campaignURL("/offer-prices/updates"), c.header(), req, nil); err != nil {
		return fmt.Errorf("yandex prices update: %w", err)
	}
	return nil
}
