// Command dryrun computes the updates a sync cycle would submit and prints
// a summary without touching any bulk-update endpoint. Useful for checking
// feed quality and catalog coverage before a real run.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/rl1809/market-sync/internal/adapter/marketplace"
	"github.com/rl1809/market-sync/internal/adapter/supplier"
	"github.com/rl1809/market-sync/internal/config"
	"github.com/rl1809/market-sync/internal/core/domain"
	"github.com/rl1809/market-sync/internal/core/service"
	"github.com/rl1809/market-sync/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("info")
		bootLog.Fatal().Err(err).Msg("invalid configuration")
	}
	log := logging.New(cfg.LogLevel)

	ctx := context.Background()
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	feed := supplier.NewFeedClient(cfg.SupplierFeedURL, httpClient)
	records, err := feed.FetchInventorySnapshot(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to fetch supplier snapshot")
	}
	fmt.Printf("supplier snapshot: %d records\n", len(records))

	ozon := marketplace.NewOzonClient(cfg.OzonBaseURL, cfg.OzonClientID, cfg.OzonAPIKey, httpClient)
	yandexFBS := marketplace.NewYandexClient(cfg.MarketBaseURL, cfg.MarketToken, cfg.FBSCampaignID, cfg.FBSWarehouseID, httpClient)
	yandexDBS := marketplace.NewYandexClient(cfg.MarketBaseURL, cfg.MarketToken, cfg.DBSCampaignID, cfg.DBSWarehouseID, httpClient)

	pairs := []service.Pair{
		{Marketplace: "ozon", Campaign: cfg.OzonClientID, Currency: "RUB",
			Catalog: service.OffsetCatalog{Fetcher: ozon}, Gateway: ozon},
		{Marketplace: "yandex", Campaign: cfg.FBSCampaignID, Currency: "RUR",
			Catalog: service.CursorCatalog{Fetcher: yandexFBS}, Gateway: yandexFBS},
		{Marketplace: "yandex", Campaign: cfg.DBSCampaignID, Currency: "RUR",
			Catalog: service.CursorCatalog{Fetcher: yandexDBS}, Gateway: yandexDBS},
	}

	failed := false
	now := time.Now().UTC().Truncate(time.Second)
	for _, pair := range pairs {
		ids, err := pair.Catalog.ListOfferIDs(ctx)
		if err != nil {
			log.Error().Err(err).Str("pair", pair.String()).Msg("enumeration failed")
			failed = true
			continue
		}
		known := domain.NewOfferSet(ids...)

		stocks, err := service.ReconcileStocks(records, known, now)
		if err != nil {
			log.Error().Err(err).Str("pair", pair.String()).Msg("stock reconciliation failed")
			failed = true
			continue
		}
		prices, err := service.ReconcilePrices(records, known, pair.Currency)
		if err != nil {
			log.Error().Err(err).Str("pair", pair.String()).Msg("price reconciliation failed")
			failed = true
			continue
		}

		zeroed := 0
		for _, u := range stocks {
			if u.Count == 0 {
				zeroed++
			}
		}
		limits := pair.Gateway.Limits()
		stockBatches := (len(stocks) + limits.Stock - 1) / limits.Stock
		priceBatches := (len(prices) + limits.Price - 1) / limits.Price
		fmt.Printf("%s: %d offers, %d stock updates (%d zeroed, %d batches), %d price updates (%d batches)\n",
			pair, known.Len(), len(stocks), zeroed, stockBatches, len(prices), priceBatches)
	}

	if failed {
		os.Exit(1)
	}
}
