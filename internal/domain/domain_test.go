package domain

import "testing"

func TestParseStockStatus(t *testing.T) {
	tests := []struct {
		in     string
		want   StockStatus
		wantOK bool
	}{
		{"critical", StatusCritical, true},
		{" LOW ", StatusLow, true},
		{"Out of Stock", StatusOutOfStock, true},
		{"OUT_OF_STOCK", StatusOutOfStock, true},
		{"healthy", StatusHealthy, true},
		{"MODERATE", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseStockStatus(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseStockStatus(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseABCClass(t *testing.T) {
	cases := map[string]ABCClass{"a": ClassA, "B": ClassB, "c": ClassC, "": ClassC, "Z": ClassC}
	for in, want := range cases {
		if got := ParseABCClass(in); got != want {
			t.Errorf("ParseABCClass(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAlertPriorityRank(t *testing.T) {
	order := []AlertPriority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, AlertPriority("other")}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
}

func TestStatusCounts(t *testing.T) {
	var c StatusCounts
	for _, s := range []StockStatus{StatusOutOfStock, StatusCritical, StatusCritical, StatusLow, StatusHealthy, "BOGUS"} {
		c.Add(s)
	}
	if c.Total() != 5 {
		t.Fatalf("Total() = %d, want 5", c.Total())
	}
	if c.Unhealthy() != 4 {
		t.Errorf("Unhealthy() = %d, want 4", c.Unhealthy())
	}
	if c.Get(StatusCritical) != 2 {
		t.Errorf("Get(CRITICAL) = %d, want 2", c.Get(StatusCritical))
	}
}

func TestInventoryItemQuantities(t *testing.T) {
	item := InventoryItem{QuantityOnHand: 10, QuantityReserved: 8, QuantityCommitted: 5, UnitCostUSD: 2}
	if got := item.AvailableStock(); got != -3 {
		t.Errorf("AvailableStock() = %v, want -3", got)
	}
	if got := item.DisplayAvailable(); got != 0 {
		t.Errorf("DisplayAvailable() = %v, want 0", got)
	}
	if got := item.InventoryValueUSD(); got != 20 {
		t.Errorf("InventoryValueUSD() = %v, want 20", got)
	}

	negative := InventoryItem{QuantityOnHand: -4, UnitCostUSD: 3}
	if got := negative.EffectiveOnHand(); got != 0 {
		t.Errorf("EffectiveOnHand() = %v, want 0", got)
	}
	if got := negative.InventoryValueUSD(); got != 0 {
		t.Errorf("InventoryValueUSD() of negative stock = %v, want 0", got)
	}
}

func TestInventoryFilterMatches(t *testing.T) {
	item := InventoryItem{SKUID: "MED-001", Location: "Rural Health Post", Category: "medicines", ABCClass: ClassA}

	tests := []struct {
		name   string
		filter InventoryFilter
		want   bool
	}{
		{"empty", InventoryFilter{}, true},
		{"location case-insensitive", InventoryFilter{Locations: []string{"rural health post"}}, true},
		{"other location", InventoryFilter{Locations: []string{"Community Clinic North"}}, false},
		{"category", InventoryFilter{Categories: []string{"food", "medicines"}}, true},
		{"sku", InventoryFilter{SKUIDs: []string{"MED-002"}}, false},
		{"abc match", InventoryFilter{ABCClasses: []ABCClass{ClassB, ClassA}}, true},
		{"abc miss", InventoryFilter{ABCClasses: []ABCClass{ClassC}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.MatchesItem(item); got != tt.want {
				t.Errorf("MatchesItem() = %v, want %v", got, tt.want)
			}
		})
	}

	f := InventoryFilter{Statuses: []StockStatus{StatusCritical}}
	if !f.MatchesStatus(StatusCritical) || f.MatchesStatus(StatusLow) {
		t.Error("MatchesStatus did not honour the status filter")
	}
}
