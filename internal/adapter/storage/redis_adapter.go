package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rl1809/market-sync/internal/core/domain"
)

const batchMarkTTL = 24 * time.Hour

type RedisAdapter struct {
	client *redis.Client
}

func NewRedisAdapter(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

func (r *RedisAdapter) GetSnapshot(ctx context.Context, key string) ([]domain.SupplierRecord, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var records []domain.SupplierRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return records, true, nil
}

func (r *RedisAdapter) PutSnapshot(ctx context.Context, key string, records []domain.SupplierRecord, ttl time.Duration) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return r.client.Set(ctx, key, raw, ttl).Err()
}

func (r *RedisAdapter) MarkBatch(ctx context.Context, key string) (bool, error) {
	ok, err := r.client.SetNX(ctx, key, 1, batchMarkTTL).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}
