package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	overviewKeyPrefix = "inventory:overview"
	scanBatchSize     = 100
)

// OverviewCache stores aggregated overviews keyed by the filter that produced them.
type OverviewCache interface {
	GetOverview(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryOverview, bool, error)
	SetOverview(ctx context.Context, filter domain.InventoryFilter, overview *domain.InventoryOverview) error
	InvalidateAll(ctx context.Context) error
}

type redisOverviewCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopOverviewCache struct{}

// NewOverviewCache wraps an existing client. A nil client yields a no-op cache.
func NewOverviewCache(client *redis.Client, ttl time.Duration) OverviewCache {
	if client == nil {
		return &noopOverviewCache{}
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &redisOverviewCache{client: client, ttl: ttl}
}

func NewNoopOverviewCache() OverviewCache {
	return &noopOverviewCache{}
}

func (c *redisOverviewCache) GetOverview(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryOverview, bool, error) {
	payload, err := c.client.Get(ctx, BuildOverviewKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var overview domain.InventoryOverview
	if err := json.Unmarshal(payload, &overview); err != nil {
		return nil, false, fmt.Errorf("decode overview cache: %w", err)
	}
	return &overview, true, nil
}

func (c *redisOverviewCache) SetOverview(ctx context.Context, filter domain.InventoryFilter, overview *domain.InventoryOverview) error {
	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("encode overview cache: %w", err)
	}

	if err := c.client.Set(ctx, BuildOverviewKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisOverviewCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, overviewKeyPrefix, scanBatchSize)
}

func (n *noopOverviewCache) GetOverview(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryOverview, bool, error) {
	return nil, false, nil
}

func (n *noopOverviewCache) SetOverview(ctx context.Context, filter domain.InventoryFilter, overview *domain.InventoryOverview) error {
	return nil
}

func (n *noopOverviewCache) InvalidateAll(ctx context.Context) error {
	return nil
}

// BuildOverviewKey returns the redis key for a filter. Pagination does not
// affect the overview and is left out.
func BuildOverviewKey(filter domain.InventoryFilter) string {
	return fmt.Sprintf("%s:%s", overviewKeyPrefix, filterHash(filter))
}

func filterHash(filter domain.InventoryFilter) string {
	parts := []string{}

	if d := strings.TrimSpace(filter.SnapshotDate); d != "" {
		parts = append(parts, "date="+d)
	}
	if len(filter.Locations) > 0 {
		parts = append(parts, "locations="+joinStrings(filter.Locations))
	}
	if len(filter.Categories) > 0 {
		parts = append(parts, "categories="+joinStrings(filter.Categories))
	}
	if len(filter.SKUIDs) > 0 {
		parts = append(parts, "sku_ids="+joinStrings(filter.SKUIDs))
	}
	if len(filter.Statuses) > 0 {
		values := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			values[i] = string(s)
		}
		parts = append(parts, "statuses="+joinStrings(values))
	}
	if len(filter.ABCClasses) > 0 {
		values := make([]string, len(filter.ABCClasses))
		for i, c := range filter.ABCClasses {
			values[i] = string(c)
		}
		parts = append(parts, "abc="+joinStrings(values))
	}

	if len(parts) == 0 {
		return "default"
	}

	sort.Strings(parts)
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}

func joinStrings(values []string) string {
	c := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(strings.ToLower(v)); v != "" {
			c = append(c, v)
		}
	}
	sort.Strings(c)
	return strings.Join(c, ",")
}
