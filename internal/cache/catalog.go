package cache

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/medbill/internal/clock"
	lineitemdomain "github.com/smallbiznis/medbill/internal/lineitem/domain"
	materialdomain "github.com/smallbiznis/medbill/internal/material/domain"
)

const defaultCatalogTTL = 5 * time.Minute

// CatalogCache stores resolved catalog records keyed by hospital and
// normalized material number. Hospital ids are compared exactly, the same way
// the catalog stores them.
type CatalogCache interface {
	Get(ctx context.Context, hospitalID, materialNumber string) (*materialdomain.Record, bool)
	Set(ctx context.Context, record *materialdomain.Record)
	InvalidateHospital(ctx context.Context, hospitalID string)
}

type catalogKey struct {
	hospitalID     string
	materialNumber string
}

func newCatalogKey(hospitalID, materialNumber string) catalogKey {
	return catalogKey{
		hospitalID:     strings.TrimSpace(hospitalID),
		materialNumber: lineitemdomain.NormalizeMaterialNumber(materialNumber),
	}
}

type memoryCatalogCache struct {
	records *TTLCache[catalogKey, materialdomain.Record]
	ttl     time.Duration
}

// NewMemoryCatalogCache returns a process-local CatalogCache.
func NewMemoryCatalogCache(c clock.Clock, ttl time.Duration) CatalogCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &memoryCatalogCache{
		records: NewTTLCache[catalogKey, materialdomain.Record](c),
		ttl:     ttl,
	}
}

func (c *memoryCatalogCache) Get(_ context.Context, hospitalID, materialNumber string) (*materialdomain.Record, bool) {
	record, ok := c.records.Get(newCatalogKey(hospitalID, materialNumber))
	if !ok {
		return nil, false
	}
	return &record, true
}

func (c *memoryCatalogCache) Set(_ context.Context, record *materialdomain.Record) {
	if record == nil || record.MaterialID == 0 {
		return
	}
	c.records.Set(newCatalogKey(record.HospitalID, record.MaterialNumber), *record, c.ttl)
}

func (c *memoryCatalogCache) InvalidateHospital(_ context.Context, hospitalID string) {
	hospitalID = strings.TrimSpace(hospitalID)
	c.records.DeleteFunc(func(key catalogKey) bool {
		return key.hospitalID == hospitalID
	})
}
