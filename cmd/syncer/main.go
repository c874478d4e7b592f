package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/rl1809/market-sync/internal/adapter/marketplace"
	"github.com/rl1809/market-sync/internal/adapter/storage"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect mysql")
	}
	defer db.Close()
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping mysql")
	}
	log.Info().Msg("connected to mysql")

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	log.Info().Msg("connected to redis")

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	feed := supplier.NewFeedClient(cfg.SupplierFeedURL, httpClient)
	ozon := marketplace.NewOzonClient(cfg.OzonBaseURL, cfg.OzonClientID, cfg.OzonAPIKey, httpClient)
	yandexFBS := marketplace.NewYandexClient(cfg.MarketBaseURL, cfg.MarketToken, cfg.FBSCampaignID, cfg.FBSWarehouseID, httpClient)
	yandexDBS := marketplace.NewYandexClient(cfg.MarketBaseURL, cfg.MarketToken, cfg.DBSCampaignID, cfg.DBSWarehouseID, httpClient)

	pairs := []service.Pair{
		{
			Marketplace: "ozon",
			Campaign:    cfg.OzonClientID,
			Currency:    "RUB",
			Catalog:     service.OffsetCatalog{Fetcher: ozon},
			Gateway:     ozon,
		},
		{
			Marketplace: "yandex",
			Campaign:    cfg.FBSCampaignID,
			Currency:    "RUR",
			Catalog:     service.CursorCatalog{Fetcher: yandexFBS},
			Gateway:     yandexFBS,
		},
		{
			Marketplace: "yandex",
			Campaign:    cfg.DBSCampaignID,
			Currency:    "RUR",
			Catalog:     service.CursorCatalog{Fetcher: yandexDBS},
			Gateway:     yandexDBS,
		},
	}

	syncService := service.NewSyncService(
		feed,
		storage.NewRedisAdapter(rdb),
		storage.NewMySQLAdapter(db),
		pairs,
		cfg.RunID,
		cfg.SnapshotCacheTTL,
		log,
	)

	results, err := syncService.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sync run failed")
	}

	failed := 0
	for _, res := range results {
		if res.State != domain.StateDone {
			failed++
		}
	}
	if failed > 0 {
		log.Error().Int("failed_pairs", failed).Int("pairs", len(results)).Msg("sync finished with failures")
		os.Exit(1)
	}
	log.Info().Int("pairs", len(results)).Msg("sync finished")
}
