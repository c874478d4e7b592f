// Package config provides runtime configuration for the sync job.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds every knob the job needs: supplier feed location,
// marketplace credentials, campaign/warehouse identifiers and
// infrastructure endpoints. Credentials are explicit values handed to
// constructors, never read from the environment deeper in the program.
type Config struct {
	SupplierFeedURL string

	OzonBaseURL  string
	OzonClientID string
	OzonAPIKey   string

	MarketBaseURL  string
	MarketToken    string
	FBSCampaignID  string
	DBSCampaignID  string
	FBSWarehouseID string
	DBSWarehouseID string

	MySQLDSN  string
	RedisAddr string

	// RunID, when set, pins the sync run identity so a re-execution of an
	// interrupted cycle skips batches it already submitted. Empty means a
	// fresh id per run.
	RunID string

	SnapshotCacheTTL time.Duration
	HTTPTimeout      time.Duration
	LogLevel         string
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durenvs(key string, defSec int) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return time.Duration(defSec) * time.Second
	}
	sec, err := strconv.Atoi(v)
	if err != nil {
		return time.Duration(defSec) * time.Second
	}
	return time.Duration(sec) * time.Second
}

// Load collects configuration from the environment with defaults and
// reports the first missing required value.
func Load() (Config, error) {
	cfg := Config{
		SupplierFeedURL:  getenv("SUPPLIER_FEED_URL", "https://timeworld.ru/upload/files/ostatki.zip"),
		OzonBaseURL:      getenv("OZON_BASE_URL", "https://api-seller.ozon.ru"),
		OzonClientID:     os.Getenv("OZON_CLIENT_ID"),
		OzonAPIKey:       os.Getenv("OZON_API_KEY"),
		MarketBaseURL:    getenv("MARKET_BASE_URL", "https://api.partner.market.yandex.ru"),
		MarketToken:      os.Getenv("MARKET_TOKEN"),
		FBSCampaignID:    os.Getenv("FBS_CAMPAIGN_ID"),
		DBSCampaignID:    os.Getenv("DBS_CAMPAIGN_ID"),
		FBSWarehouseID:   os.Getenv("FBS_WAREHOUSE_ID"),
		DBSWarehouseID:   os.Getenv("DBS_WAREHOUSE_ID"),
		MySQLDSN:         getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/marketsync?parseTime=true"),
		RedisAddr:        getenv("REDIS_ADDR", "localhost:6379"),
		RunID:            os.Getenv("RUN_ID"),
		SnapshotCacheTTL: durenvs("SNAPSHOT_CACHE_TTL", 600),
		HTTPTimeout:      durenvs("HTTP_TIMEOUT", 60),
		LogLevel:         getenv("LOG_LEVEL", "info"),
	}

	required := []struct {
		name  string
		value string
	}{
		{"OZON_CLIENT_ID", cfg.OzonClientID},
		{"OZON_API_KEY", cfg.OzonAPIKey},
		{"MARKET_TOKEN", cfg.MarketToken},
		{"FBS_CAMPAIGN_ID", cfg.FBSCampaignID},
		{"DBS_CAMPAIGN_ID", cfg.DBSCampaignID},
		{"FBS_WAREHOUSE_ID", cfg.FBSWarehouseID},
		{"DBS_WAREHOUSE_ID", cfg.DBSWarehouseID},
	}
	for _, r := range required {
		if r.value == "" {
			return Config{}, fmt.Errorf("missing required environment variable %s", r.name)
		}
	}
	return cfg, nil
}
