package stock_health

import (
	"testing"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestPriorityScore(t *testing.T) {
	base := domain.InventoryItem{SafetyStock: 50, ReorderPoint: 100}

	tests := []struct {
		qty  float64
		want int
	}{
		{-3, 10},
		{0, 10},
		{20, 9},
		{25, 9},
		{45, 8},
		{50, 8},
		{75, 7},
		{100, 6},
		{101, 5},
	}

	for _, tt := range tests {
		item := base
		item.QuantityOnHand = tt.qty
		if got := PriorityScore(item); got != tt.want {
			t.Errorf("PriorityScore(qty=%v) = %d, want %d", tt.qty, got, tt.want)
		}
	}
}

func TestPriorityScoreMonotonic(t *testing.T) {
	base := domain.InventoryItem{SafetyStock: 30, ReorderPoint: 90}
	prev := 11
	for qty := -5.0; qty <= 200; qty += 0.5 {
		item := base
		item.QuantityOnHand = qty
		got := PriorityScore(item)
		if got < 5 || got > 10 {
			t.Fatalf("priority %d out of range at qty %v", got, qty)
		}
		if got > prev {
			t.Fatalf("priority rose from %d to %d as stock increased to %v", prev, got, qty)
		}
		prev = got
	}
}

func TestPlan(t *testing.T) {
	p := NewReorderPlanner(DefaultPlannerOptions())

	item := domain.InventoryItem{
		QuantityOnHand: 45,
		SafetyStock:    50,
		ReorderPoint:   100,
		LeadTimeDays:   7,
		AvgDailySales:  10,
		UnitCostUSD:    2.5,
	}
	plan := p.Plan(item)

	if plan.PriorityScore != 8 {
		t.Errorf("priority = %d, want 8", plan.PriorityScore)
	}
	if !plan.Urgent {
		t.Error("expected urgent")
	}
	if !plan.NeedsReorder {
		t.Error("expected needs reorder")
	}
	// 50 + 10*7*1.5 - 45
	if plan.RecommendedOrderQty != 110 {
		t.Errorf("recommended = %v, want 110", plan.RecommendedOrderQty)
	}
	if plan.EstimatedOrderValueUSD != 275 {
		t.Errorf("order value = %v, want 275", plan.EstimatedOrderValueUSD)
	}
	if plan.SuggestedReorderPoint != 120 {
		t.Errorf("suggested reorder point = %v, want 120", plan.SuggestedReorderPoint)
	}
}

func TestRecommendedOrderQty(t *testing.T) {
	tests := []struct {
		name string
		item domain.InventoryItem
		want float64
	}{
		{
			name: "uses available stock",
			item: domain.InventoryItem{QuantityOnHand: 50, SafetyStock: 20, AvgDailySales: 10, LeadTimeDays: 7},
			want: 75,
		},
		{
			name: "reserved and committed reduce availability",
			item: domain.InventoryItem{QuantityOnHand: 50, QuantityReserved: 10, QuantityCommitted: 5, SafetyStock: 20, AvgDailySales: 10, LeadTimeDays: 7},
			want: 90,
		},
		{
			name: "never negative",
			item: domain.InventoryItem{QuantityOnHand: 1000, SafetyStock: 20, AvgDailySales: 10, LeadTimeDays: 7},
			want: 0,
		},
		{
			name: "missing lead time falls back to seven days",
			item: domain.InventoryItem{QuantityOnHand: 0, AvgDailySales: 2},
			want: 21,
		},
		{
			name: "rounds up to whole units",
			item: domain.InventoryItem{QuantityOnHand: 0, AvgDailySales: 0.3, LeadTimeDays: 3},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RecommendedOrderQty(tt.item); got != tt.want {
				t.Errorf("RecommendedOrderQty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEconomicOrderQty(t *testing.T) {
	p := NewReorderPlanner(PlannerOptions{})

	tests := []struct {
		name string
		item domain.InventoryItem
		want float64
	}{
		{"top up to max stock", domain.InventoryItem{MaxStock: 300, QuantityOnHand: 120}, 180},
		{"above max stock", domain.InventoryItem{MaxStock: 300, QuantityOnHand: 320}, 0},
		// sqrt(2 * 3650 * 50 / (4 * 0.25)) = 604.15
		{"wilson formula", domain.InventoryItem{AvgDailySales: 10, UnitCostUSD: 4}, 605},
		{"no cost", domain.InventoryItem{AvgDailySales: 10}, 0},
		{"no demand", domain.InventoryItem{UnitCostUSD: 4}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.EconomicOrderQty(tt.item); got != tt.want {
				t.Errorf("EconomicOrderQty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanIdempotent(t *testing.T) {
	p := NewReorderPlanner(DefaultPlannerOptions())
	item := domain.InventoryItem{QuantityOnHand: 12, SafetyStock: 30, ReorderPoint: 60, LeadTimeDays: 5, AvgDailySales: 3, UnitCostUSD: 1.2}
	if a, b := p.Plan(item), p.Plan(item); a != b {
		t.Fatalf("plan not idempotent: %+v vs %+v", a, b)
	}
}
