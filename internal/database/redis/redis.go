package redis

import (
	"context"
	"time"

	"apcsp-quiz/internal/config"

	"github.com/redis/go-redis/v9"
)

// Connect returns a client for cfg, or nil when no address is configured.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
