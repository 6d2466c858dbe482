package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	materialdomain "github.com/smallbiznis/medbill/internal/material/domain"
	"go.uber.org/zap"
)

const catalogKeyPrefix = "medbill:catalog:"

type redisCatalogCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *zap.Logger
}

// NewRedisCatalogCache returns a CatalogCache shared across instances. Each
// hospital keeps a set of its cached keys so it can be invalidated at once.
// Redis errors are logged and treated as misses.
func NewRedisCatalogCache(client redis.UniversalClient, ttl time.Duration, log *zap.Logger) CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &redisCatalogCache{client: client, ttl: ttl, log: log.Named("cache.catalog")}
}

func recordKey(hospitalID, materialNumber string) string {
	key := newCatalogKey(hospitalID, materialNumber)
	return catalogKeyPrefix + "record:" + key.hospitalID + "|" + key.materialNumber
}

func hospitalSetKey(hospitalID string) string {
	return catalogKeyPrefix + "hospital:" + strings.TrimSpace(hospitalID)
}

func (c *redisCatalogCache) Get(ctx context.Context, hospitalID, materialNumber string) (*materialdomain.Record, bool) {
	raw, err := c.client.Get(ctx, recordKey(hospitalID, materialNumber)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("catalog cache get failed", zap.Error(err))
		}
		return nil, false
	}

	var record materialdomain.Record
	if err := json.Unmarshal(raw, &record); err != nil {
		c.log.Warn("catalog cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return &record, true
}

func (c *redisCatalogCache) Set(ctx context.Context, record *materialdomain.Record) {
	if record == nil || record.MaterialID == 0 {
		return
	}
	payload, err := json.Marshal(record)
	if err != nil {
		c.log.Warn("catalog cache encode failed", zap.Error(err))
		return
	}

	key := recordKey(record.HospitalID, record.MaterialNumber)
	setKey := hospitalSetKey(record.HospitalID)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, c.ttl)
		pipe.SAdd(ctx, setKey, key)
		pipe.Expire(ctx, setKey, c.ttl)
		return nil
	})
	if err != nil {
		c.log.Warn("catalog cache set failed", zap.Error(err))
	}
}

func (c *redisCatalogCache) InvalidateHospital(ctx context.Context, hospitalID string) {
	setKey := hospitalSetKey(hospitalID)
	keys, err := c.client.SMembers(ctx, setKey).Result()
	if err != nil {
		c.log.Warn("catalog cache invalidate failed", zap.String("hospital_id", hospitalID), zap.Error(err))
		return
	}
	if err := c.client.Del(ctx, append(keys, setKey)...).Err(); err != nil {
		c.log.Warn("catalog cache invalidate failed", zap.String("hospital_id", hospitalID), zap.Error(err))
	}
}
