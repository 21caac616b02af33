package insights

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func sampleOverview() domain.InventoryOverview {
	return domain.InventoryOverview{
		TotalItems:        4,
		TotalLocations:    2,
		TotalCategories:   3,
		TotalValueUSD:     2160,
		HealthScore:       25,
		StatusBreakdown:   domain.StatusCounts{OutOfStock: 1, Critical: 1, Low: 1, Healthy: 1},
		CriticalTiming:    domain.CriticalTiming{Within3Days: 2, Within7Days: 2, Within14Days: 3},
		AvgDaysToStockout: 4.67,
		ABCAnalysis: []domain.ABCSummary{
			{Class: domain.ClassA, Count: 2, TotalValueUSD: 100, CriticalCount: 2},
		},
		Locations: []domain.BucketSummary{
			{Name: "North", Status: domain.StatusCounts{OutOfStock: 1, Critical: 1}},
			{Name: "South", Status: domain.StatusCounts{Low: 1, Healthy: 1}},
		},
		Categories: []domain.BucketSummary{
			{Name: "food", Status: domain.StatusCounts{OutOfStock: 1, Low: 1}, AvgRiskScore: 85},
		},
		Reorder: domain.ReorderStats{ItemsToReorder: 3, UrgentItems: 2, TotalOrderValueUSD: 1049},
		TopCriticalItems: []domain.CriticalItem{
			{Name: "Rice", Location: "North", Category: "food", Quantity: 0, DaysUntilStockout: 0, RiskScore: 100},
		},
	}
}

func TestBuildInsightsPrompt(t *testing.T) {
	p := BuildInsightsPrompt(sampleOverview())

	for _, want := range []string{
		"Total Inventory Value: $2,160.00",
		"OUT_OF_STOCK: 1 items (25.0%)",
		"Items <= 7 days to stockout: 2",
		"Average days until stockout: 4.7 days",
		"Class A: 2 items, $100 value, 2 critical",
		"North: 2 critical, 0 low, 0 healthy",
		"food: 1 critical items, Avg Risk: 85",
		"Estimated total order value: $1,049",
		"1. Rice (North) - food, Stock: 0, Days: 0.0, Risk: 100",
		"Provide your analysis:",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildChatPrompt(t *testing.T) {
	p := BuildChatPrompt("  Which location is worst? ", sampleOverview())
	if !strings.Contains(p, "**USER QUESTION:**\nWhich location is worst?\n") {
		t.Errorf("question not embedded:\n%s", p)
	}
	if !strings.Contains(p, "- North: 2 critical items") {
		t.Errorf("location context missing:\n%s", p)
	}
}

func TestFallbackSummary(t *testing.T) {
	s := FallbackSummary(sampleOverview())
	if !strings.Contains(s, "Most affected location: North.") || !strings.Contains(s, "$1,049") {
		t.Errorf("summary = %s", s)
	}
	if got := FallbackSummary(domain.InventoryOverview{}); !strings.HasPrefix(got, "No inventory data") {
		t.Errorf("empty summary = %s", got)
	}
}

func TestMoney(t *testing.T) {
	tests := []struct {
		v    float64
		d    int
		want string
	}{
		{0, 0, "0"},
		{999, 0, "999"},
		{1000, 0, "1,000"},
		{1234567.891, 2, "1,234,567.89"},
		{-12345, 0, "-12,345"},
	}
	for _, tt := range tests {
		if got := money(tt.v, tt.d); got != tt.want {
			t.Errorf("money(%v, %d) = %s, want %s", tt.v, tt.d, got, tt.want)
		}
	}
}

func TestNewCompleterWithoutKey(t *testing.T) {
	c := NewCompleter("", "gpt-4o")
	if _, err := c.Complete(context.Background(), "hi"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
