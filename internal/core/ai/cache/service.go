package cache

import (
	"context"
	"fmt"
	"time"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// redisBackend 以 Redis 作為快取後端
type redisBackend struct {
	client *redis.Client
	ttl    time.Duration
}

// newRedisBackend 連線 Redis 並驗證可用性
func newRedisBackend(cfg *config.Config) (*redisBackend, error) {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Cache.RedisAddr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	common.LogInfo("Redis 快取後端已連線",
		zap.String("addr", cfg.Cache.RedisAddr),
	)

	return &redisBackend{
		client: client,
		ttl:    cfg.Cache.TTL,
	}, nil
}

// Get 讀取快取值，未命中回傳 ErrMiss
func (r *redisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return value, nil
}

// Set 寫入快取值並套用 TTL
func (r *redisBackend) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, key, value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *redisBackend) Close() error {
	return r.client.Close()
}
