package stock_health

import (
	"testing"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestResolveAppliesDefaults(t *testing.T) {
	item := DefaultOptionalFields.Resolve(RawInventoryRow{
		SKUID:          " MED-001 ",
		Location:       "North",
		QuantityOnHand: 12,
	})

	if item.SKUID != "MED-001" {
		t.Errorf("sku = %q", item.SKUID)
	}
	if item.LeadTimeDays != 7 {
		t.Errorf("lead time = %v, want 7", item.LeadTimeDays)
	}
	if item.AvgDailySales != 1 {
		t.Errorf("daily sales = %v, want 1", item.AvgDailySales)
	}
	if item.ABCClass != domain.ClassC {
		t.Errorf("abc = %s, want C", item.ABCClass)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		raw   RawInventoryRow
		check func(t *testing.T, item domain.InventoryItem)
	}{
		{
			name: "explicit zero sales is kept",
			raw:  RawInventoryRow{SKUID: "a", AvgDailySales: floatPtr(0)},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.AvgDailySales != 0 {
					t.Errorf("daily sales = %v, want 0", item.AvgDailySales)
				}
			},
		},
		{
			name: "non-positive lead time falls back",
			raw:  RawInventoryRow{SKUID: "a", LeadTimeDays: floatPtr(-2)},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.LeadTimeDays != 7 {
					t.Errorf("lead time = %v, want 7", item.LeadTimeDays)
				}
			},
		},
		{
			name: "negative counts are clamped",
			raw:  RawInventoryRow{SKUID: "a", SafetyStock: floatPtr(-5), ReorderPoint: floatPtr(-1), UnitCostUSD: floatPtr(-3), AvgDailySales: floatPtr(-4)},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.SafetyStock != 0 || item.ReorderPoint != 0 || item.UnitCostUSD != 0 || item.AvgDailySales != 0 {
					t.Errorf("negative values not clamped: %+v", item)
				}
			},
		},
		{
			name: "negative on hand is kept raw",
			raw:  RawInventoryRow{SKUID: "a", QuantityOnHand: -8},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.QuantityOnHand != -8 {
					t.Errorf("on hand = %v, want -8", item.QuantityOnHand)
				}
			},
		},
		{
			name: "on-time percentage capped at 100",
			raw:  RawInventoryRow{SKUID: "a", SupplierOnTimePct: floatPtr(130)},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.SupplierOnTimePct != 100 {
					t.Errorf("on-time = %v, want 100", item.SupplierOnTimePct)
				}
			},
		},
		{
			name: "explicit class wins",
			raw:  RawInventoryRow{SKUID: "a", ABCClass: "a"},
			check: func(t *testing.T, item domain.InventoryItem) {
				if item.ABCClass != domain.ClassA {
					t.Errorf("abc = %s, want A", item.ABCClass)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DefaultOptionalFields.Resolve(tt.raw))
		})
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12", 12, true},
		{" 1,250.5 ", 1250.5, true},
		{"95%", 95, true},
		{"$4.20", 4.2, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("parseNumber(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
