// stockwatch/internal/domain/models.go
package domain

import (
	"math"
	"time"
)

// NoStockoutDays is the days-until-stockout sentinel for items with no consumption.
const NoStockoutDays = 999.0

// InventoryItem is one SKU held at one location in a snapshot.
type InventoryItem struct {
	SKUID             string    `json:"sku_id" db:"sku_id"`
	SKUName           string    `json:"sku_name" db:"sku_name"`
	Category          string    `json:"category" db:"category"`
	Location          string    `json:"location" db:"location"`
	ABCClass          ABCClass  `json:"abc_class" db:"abc_class"`
	QuantityOnHand    float64   `json:"quantity_on_hand" db:"quantity_on_hand"`
	QuantityReserved  float64   `json:"quantity_reserved" db:"quantity_reserved"`
	QuantityCommitted float64   `json:"quantity_committed" db:"quantity_committed"`
	ReorderPoint      float64   `json:"reorder_point" db:"reorder_point"`
	SafetyStock       float64   `json:"safety_stock" db:"safety_stock"`
	LeadTimeDays      float64   `json:"lead_time_days" db:"lead_time_days"`
	MaxStock          float64   `json:"max_stock" db:"max_stock"`
	AvgDailySales     float64   `json:"avg_daily_sales" db:"avg_daily_sales"`
	UnitCostUSD       float64   `json:"unit_cost_usd" db:"unit_cost_usd"`
	SupplierName      string    `json:"supplier_name" db:"supplier_name"`
	SupplierOnTimePct float64   `json:"supplier_ontime_pct" db:"supplier_ontime_pct"`
	LastUpdated       time.Time `json:"last_updated" db:"last_updated"`
}

// AvailableStock is on hand minus reserved and committed units. It may be negative.
func (i InventoryItem) AvailableStock() float64 {
	return i.QuantityOnHand - i.QuantityReserved - i.QuantityCommitted
}

// DisplayAvailable clamps AvailableStock at zero for presentation.
func (i InventoryItem) DisplayAvailable() float64 {
	return math.Max(0, i.AvailableStock())
}

// EffectiveOnHand treats negative on-hand quantities as zero.
func (i InventoryItem) EffectiveOnHand() float64 {
	return math.Max(0, i.QuantityOnHand)
}

// InventoryValueUSD is the value of the units physically on hand.
func (i InventoryItem) InventoryValueUSD() float64 {
	return i.EffectiveOnHand() * i.UnitCostUSD
}

// StockHealth is the classifier output for one item.
type StockHealth struct {
	DaysUntilStockout float64     `json:"days_until_stockout"`
	StockStatus       StockStatus `json:"stock_status"`
	RiskScore         float64     `json:"risk_score"`
}

// HasStockoutHorizon reports whether DaysUntilStockout is a real estimate rather than the sentinel.
func (h StockHealth) HasStockoutHorizon() bool {
	return h.DaysUntilStockout < NoStockoutDays
}

// ReorderPlan is the planner output for one item.
type ReorderPlan struct {
	RecommendedOrderQty    float64 `json:"recommended_order_qty"`
	EconomicOrderQty       float64 `json:"economic_order_qty"`
	PriorityScore          int     `json:"priority_score"`
	Urgent                 bool    `json:"urgent"`
	NeedsReorder           bool    `json:"needs_reorder"`
	SuggestedReorderPoint  float64 `json:"suggested_reorder_point"`
	EstimatedOrderValueUSD float64 `json:"estimated_order_value_usd"`
}

// Forecast is the simulated short-horizon demand outlook for one item.
type Forecast struct {
	HorizonDays             int          `json:"horizon_days"`
	PredictedConsumption    float64      `json:"predicted_consumption"`
	TotalForecastedDemand   float64      `json:"total_forecasted_demand"`
	PredictedStock          float64      `json:"predicted_stock"`
	PredictedDaysToStockout float64      `json:"predicted_days_to_stockout"`
	DemandVolatility        float64      `json:"demand_volatility"`
	ModelAccuracy           float64      `json:"model_accuracy"`
	ConfidenceLower         float64      `json:"confidence_lower"`
	ConfidenceUpper         float64      `json:"confidence_upper"`
	StockoutRisk            StockoutRisk `json:"stockout_risk"`
}

// EvaluatedItem is an item together with everything derived from it.
type EvaluatedItem struct {
	InventoryItem
	StockHealth
	ReorderPlan
	Available float64   `json:"available_stock"`
	ValueUSD  float64   `json:"total_inventory_value_usd"`
	Forecast  *Forecast `json:"forecast,omitempty"`
}

// ItemForecast pairs a forecast with the item identity for list responses.
type ItemForecast struct {
	SKUID          string  `json:"sku_id"`
	SKUName        string  `json:"sku_name"`
	Category       string  `json:"category"`
	Location       string  `json:"location"`
	QuantityOnHand float64 `json:"quantity_on_hand"`
	AvgDailySales  float64 `json:"avg_daily_sales"`
	Forecast
}

// StockHistoryPoint is one day of on-hand quantity for an item.
type StockHistoryPoint struct {
	SKUID    string    `json:"sku_id" db:"sku_id"`
	Category string    `json:"category,omitempty" db:"category"`
	Location string    `json:"location" db:"location"`
	Date     time.Time `json:"date" db:"snapshot_date"`
	Quantity float64   `json:"quantity" db:"quantity_on_hand"`
}

// ExportRecord is a row written to the export log.
type ExportRecord struct {
	ID         string    `json:"id" db:"id"`
	Format     string    `json:"format" db:"format"`
	FileName   string    `json:"file_name" db:"file_name"`
	ObjectKey  string    `json:"object_key" db:"object_key"`
	Items      int       `json:"items" db:"items"`
	TotalValue float64   `json:"total_value_usd" db:"total_value_usd"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
