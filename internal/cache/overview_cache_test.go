package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestBuildOverviewKey(t *testing.T) {
	base := BuildOverviewKey(domain.InventoryFilter{})
	if base != "inventory:overview:default" {
		t.Fatalf("empty filter key = %s", base)
	}

	a := BuildOverviewKey(domain.InventoryFilter{Locations: []string{"North", "south "}, Statuses: []domain.StockStatus{domain.StatusLow}})
	b := BuildOverviewKey(domain.InventoryFilter{Locations: []string{"South", "north"}, Statuses: []domain.StockStatus{domain.StatusLow}, Page: 4})
	if a != b {
		t.Errorf("equivalent filters hash differently: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, overviewKeyPrefix+":") {
		t.Errorf("key %s lacks prefix", a)
	}

	c := BuildOverviewKey(domain.InventoryFilter{Locations: []string{"North"}})
	if a == c {
		t.Error("different filters share a key")
	}

	d := BuildOverviewKey(domain.InventoryFilter{SnapshotDate: "2025-01-02"})
	e := BuildOverviewKey(domain.InventoryFilter{SnapshotDate: "2025-01-03"})
	if d == e {
		t.Error("snapshot date not part of key")
	}
}

func TestNilClientIsNoop(t *testing.T) {
	c := NewOverviewCache(nil, 0)
	ctx := context.Background()

	if err := c.SetOverview(ctx, domain.InventoryFilter{}, &domain.InventoryOverview{TotalItems: 3}); err != nil {
		t.Fatalf("SetOverview: %v", err)
	}
	got, ok, err := c.GetOverview(ctx, domain.InventoryFilter{})
	if err != nil || ok || got != nil {
		t.Fatalf("noop cache returned %v, %v, %v", got, ok, err)
	}
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisHost: "cache", RedisPort: "6380", RedisDB: 2})
	if err != nil {
		t.Fatalf("buildRedisOptions: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.DB != 2 {
		t.Errorf("options = %+v", opts)
	}

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:secret@example:6390/1"})
	if err != nil {
		t.Fatalf("buildRedisOptions url: %v", err)
	}
	if opts.Addr != "example:6390" || opts.Password != "secret" || opts.DB != 1 {
		t.Errorf("url options = %+v", opts)
	}

	if _, err := buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"}); err == nil {
		t.Error("expected error for non-redis url")
	}
}

func TestSummaryTTL(t *testing.T) {
	if got := SummaryTTL(config.CacheConfig{}); got != defaultCacheTTL {
		t.Errorf("default ttl = %v", got)
	}
	if got := SummaryTTL(config.CacheConfig{SummaryTTLSeconds: 5}).Seconds(); got != 5 {
		t.Errorf("ttl = %v", got)
	}
}
