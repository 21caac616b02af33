package domain

import (
	"strings"
	"time"
)

// StatusCounts holds the number of items per stock status.
type StatusCounts struct {
	OutOfStock int `json:"out_of_stock"`
	Critical   int `json:"critical"`
	Low        int `json:"low"`
	Healthy    int `json:"healthy"`
}

// Add counts one item with the given status.
func (c *StatusCounts) Add(s StockStatus) {
	switch s {
	case StatusOutOfStock:
		c.OutOfStock++
	case StatusCritical:
		c.Critical++
	case StatusLow:
		c.Low++
	case StatusHealthy:
		c.Healthy++
	}
}

// Get returns the count for one status.
func (c StatusCounts) Get(s StockStatus) int {
	switch s {
	case StatusOutOfStock:
		return c.OutOfStock
	case StatusCritical:
		return c.Critical
	case StatusLow:
		return c.Low
	case StatusHealthy:
		return c.Healthy
	}
	return 0
}

func (c StatusCounts) Total() int {
	return c.OutOfStock + c.Critical + c.Low + c.Healthy
}

// Unhealthy counts every item that is not HEALTHY.
func (c StatusCounts) Unhealthy() int {
	return c.OutOfStock + c.Critical + c.Low
}

// BucketSummary is the roll-up for one location or category.
type BucketSummary struct {
	Name                 string       `json:"name"`
	Items                int          `json:"items"`
	Status               StatusCounts `json:"status"`
	TotalUnits           float64      `json:"total_units"`
	TotalValueUSD        float64      `json:"total_value_usd"`
	AvgRiskScore         float64      `json:"avg_risk_score"`
	HealthScore          float64      `json:"health_score"`
	AvgDaysCoverage      float64      `json:"avg_days_coverage"`
	ItemsToReorder       int          `json:"items_to_reorder"`
	AvgSupplierOnTimePct float64      `json:"avg_supplier_ontime_pct"`
}

// ABCSummary is the roll-up for one ABC class.
type ABCSummary struct {
	Class         ABCClass `json:"abc_class"`
	Count         int      `json:"count"`
	TotalValueUSD float64  `json:"total_value_usd"`
	CriticalCount int      `json:"critical_count"`
	ValueSharePct float64  `json:"value_share_pct"`
}

// HeatmapCell is one location x category intersection.
type HeatmapCell struct {
	Location     string  `json:"location"`
	Category     string  `json:"category"`
	Items        int     `json:"items"`
	Critical     int     `json:"critical"`
	Low          int     `json:"low"`
	AvgRiskScore float64 `json:"avg_risk_score"`
	HealthScore  float64 `json:"health_score"`
}

// CriticalTiming counts items by how soon they run out.
type CriticalTiming struct {
	Within3Days  int `json:"within_3_days"`
	Within7Days  int `json:"within_7_days"`
	Within14Days int `json:"within_14_days"`
}

type ReorderStats struct {
	ItemsToReorder     int     `json:"items_to_reorder"`
	UrgentItems        int     `json:"urgent_items"`
	TotalOrderValueUSD float64 `json:"total_order_value_usd"`
}

// CriticalItem is a compact view of a high risk item.
type CriticalItem struct {
	SKUID             string      `json:"sku_id"`
	Name              string      `json:"name"`
	Location          string      `json:"location"`
	Category          string      `json:"category"`
	Quantity          float64     `json:"qty"`
	DaysUntilStockout float64     `json:"days"`
	RiskScore         float64     `json:"risk"`
	Status            StockStatus `json:"stock_status"`
}

// InventoryOverview is the full aggregated picture of a snapshot.
type InventoryOverview struct {
	TotalItems        int             `json:"total_items"`
	TotalLocations    int             `json:"total_locations"`
	TotalCategories   int             `json:"total_categories"`
	TotalUnits        float64         `json:"total_units"`
	TotalValueUSD     float64         `json:"total_value_usd"`
	AvgRiskScore      float64         `json:"avg_risk_score"`
	HealthScore       float64         `json:"health_score"`
	StatusBreakdown   StatusCounts    `json:"stock_status_breakdown"`
	CriticalTiming    CriticalTiming  `json:"critical_timing"`
	AvgDaysToStockout float64         `json:"avg_days_to_stockout"`
	ABCAnalysis       []ABCSummary    `json:"abc_analysis"`
	Locations         []BucketSummary `json:"location_breakdown"`
	Categories        []BucketSummary `json:"category_breakdown"`
	Reorder           ReorderStats    `json:"reorder_stats"`
	TopCriticalItems  []CriticalItem  `json:"top_critical_items"`
	SnapshotDate      string          `json:"snapshot_date,omitempty"`
}

// ReorderSummary describes a reorder list.
type ReorderSummary struct {
	Items              int     `json:"items"`
	UrgentItems        int     `json:"urgent_items"`
	TotalOrderValueUSD float64 `json:"total_order_value_usd"`
	Suppliers          int     `json:"suppliers"`
}

// ForecastSummary counts forecasts per stockout risk bucket.
type ForecastSummary struct {
	Items            int     `json:"items"`
	High             int     `json:"high"`
	Moderate         int     `json:"moderate"`
	Low              int     `json:"low"`
	AvgModelAccuracy float64 `json:"avg_model_accuracy"`
	Truncated        bool    `json:"truncated"`
}

// FilterOptions lists the distinct values available for filtering.
type FilterOptions struct {
	Locations  []string      `json:"locations"`
	Categories []string      `json:"categories"`
	Statuses   []StockStatus `json:"statuses"`
	ABCClasses []ABCClass    `json:"abc_classes"`
}

// InventoryFilter represents filters for inventory queries
type InventoryFilter struct {
	Locations    []string
	Categories   []string
	Statuses     []StockStatus
	ABCClasses   []ABCClass
	SKUIDs       []string
	SnapshotDate string
	Page         int
	PageSize     int
}

// MatchesItem applies the identity filters that do not need evaluation.
func (f InventoryFilter) MatchesItem(item InventoryItem) bool {
	if len(f.Locations) > 0 && !containsFold(f.Locations, item.Location) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, item.Category) {
		return false
	}
	if len(f.SKUIDs) > 0 && !containsFold(f.SKUIDs, item.SKUID) {
		return false
	}
	if len(f.ABCClasses) > 0 {
		found := false
		for _, c := range f.ABCClasses {
			if c == item.ABCClass {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// MatchesStatus applies the status filter to a classified item.
func (f InventoryFilter) MatchesStatus(s StockStatus) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if want == s {
			return true
		}
	}
	return false
}

func containsFold(values []string, v string) bool {
	v = strings.TrimSpace(v)
	for _, candidate := range values {
		if strings.EqualFold(strings.TrimSpace(candidate), v) {
			return true
		}
	}
	return false
}

// TrendPoint is the stock held and consumed by one category on one day.
type TrendPoint struct {
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Stock       float64   `json:"stock"`
	Consumption float64   `json:"consumption"`
}

// TrendReport is category history over a look-back window.
type TrendReport struct {
	Days             int          `json:"days"`
	From             time.Time    `json:"from"`
	To               time.Time    `json:"to"`
	Points           []TrendPoint `json:"points"`
	TotalConsumption float64      `json:"total_consumption"`
	LatestStock      float64      `json:"latest_stock"`
}

// LocationComparison is the current stock and status mix of one location.
type LocationComparison struct {
	Location   string       `json:"location"`
	TotalStock float64      `json:"total_stock"`
	Status     StatusCounts `json:"status"`
}
