package stock_health

import (
	"testing"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func categorySeries(sku, category, location string, start time.Time, quantities ...float64) []domain.StockHistoryPoint {
	out := series(sku, location, start, quantities...)
	for i := range out {
		out[i].Category = category
	}
	return out
}

func TestTrends(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	var history []domain.StockHistoryPoint
	history = append(history, categorySeries("MED-001", "medicines", "North", start, 100, 90, 80, 120)...)
	history = append(history, categorySeries("MED-002", "medicines", "South", start, 50, 45, 40, 35)...)
	history = append(history, categorySeries("FOOD-001", "food", "North", start, 200, 180, 170, 150)...)

	got := Trends(history, 3)

	if !got.From.Equal(start.AddDate(0, 0, 1)) || !got.To.Equal(start.AddDate(0, 0, 3)) {
		t.Fatalf("window = %v..%v", got.From, got.To)
	}
	if len(got.Points) != 6 {
		t.Fatalf("points = %d, want 6: %+v", len(got.Points), got.Points)
	}

	// first day in the window uses the day before it as the previous quantity
	first := got.Points[0]
	if first.Category != "food" || first.Stock != 180 || first.Consumption != 20 {
		t.Errorf("first point = %+v", first)
	}

	last := got.Points[len(got.Points)-1]
	if last.Category != "medicines" || last.Stock != 155 || last.Consumption != 5 {
		t.Errorf("restock day = %+v, want stock 155 consumption 5", last)
	}

	// food 20+10+20, medicines (10+5)+(10+5)+(0+5)
	if got.TotalConsumption != 85 {
		t.Errorf("total consumption = %v, want 85", got.TotalConsumption)
	}
	if got.LatestStock != 305 {
		t.Errorf("latest stock = %v, want 305", got.LatestStock)
	}
}

func TestTrendsEmpty(t *testing.T) {
	got := Trends(nil, 30)
	if got.Days != 30 || got.Points == nil || len(got.Points) != 0 {
		t.Errorf("report = %+v", got)
	}
}

func TestCompareLocations(t *testing.T) {
	items := []domain.EvaluatedItem{
		{InventoryItem: domain.InventoryItem{Location: "North", QuantityOnHand: 10}, StockHealth: domain.StockHealth{StockStatus: domain.StatusCritical}},
		{InventoryItem: domain.InventoryItem{Location: "South", QuantityOnHand: 40}, StockHealth: domain.StockHealth{StockStatus: domain.StatusHealthy}},
		{InventoryItem: domain.InventoryItem{Location: "North", QuantityOnHand: 5}, StockHealth: domain.StockHealth{StockStatus: domain.StatusLow}},
		{InventoryItem: domain.InventoryItem{Location: "East", QuantityOnHand: 15}, StockHealth: domain.StockHealth{StockStatus: domain.StatusHealthy}},
	}

	got := CompareLocations(items)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Location != "South" || got[0].TotalStock != 40 {
		t.Errorf("first = %+v", got[0])
	}
	// ties break by name
	if got[1].Location != "East" || got[2].Location != "North" {
		t.Errorf("order = %s, %s", got[1].Location, got[2].Location)
	}
	if got[2].Status.Critical != 1 || got[2].Status.Low != 1 {
		t.Errorf("north status = %+v", got[2].Status)
	}
}
