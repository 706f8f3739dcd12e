package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/keiridesk/keiridesk/internal/config"
)

func newRedisClient(cfg config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func newBucket(cfg config.Config, client *redis.Client) *TokenBucket {
	return NewTokenBucket(client, cfg.RateLimitPerSecond, cfg.RateLimitBurst)
}

// Module wires the redis-backed token bucket.
var Module = fx.Module("ratelimit",
	fx.Provide(newRedisClient),
	fx.Provide(newBucket),
)
