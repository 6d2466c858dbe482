package cache

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/medbill/internal/clock"
	"github.com/smallbiznis/medbill/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("cache",
	fx.Provide(clock.System),
	fx.Provide(NewCatalogCache),
)

// NewCatalogCache uses Redis when REDIS_ADDR is configured and the in-memory
// cache otherwise.
func NewCatalogCache(lc fx.Lifecycle, cfg config.Config, c clock.Clock, log *zap.Logger) CatalogCache {
	ttl := cfg.Pricing.CatalogCacheTTL
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return NewMemoryCatalogCache(c, ttl)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable, catalog cache will miss until it recovers",
					zap.String("addr", cfg.RedisAddr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisCatalogCache(client, ttl, log)
}
