package domain

import "time"

// Alert is raised for an item that needs operator attention.
type Alert struct {
	ID                  string        `json:"id"`
	Type                AlertType     `json:"alert_type"`
	Priority            AlertPriority `json:"priority"`
	SKUID               string        `json:"sku_id"`
	SKUName             string        `json:"sku_name"`
	Category            string        `json:"category"`
	Location            string        `json:"location"`
	Status              StockStatus   `json:"stock_status"`
	QuantityOnHand      float64       `json:"quantity_on_hand"`
	DaysUntilStockout   float64       `json:"days_until_stockout"`
	RiskScore           float64       `json:"risk_score"`
	RecommendedOrderQty float64       `json:"recommended_order_qty"`
	Message             string        `json:"message"`
	CreatedAt           time.Time     `json:"created_at"`
}

// AlertSummary aggregates a set of alerts.
type AlertSummary struct {
	Total             int     `json:"total"`
	Critical          int     `json:"critical"`
	High              int     `json:"high"`
	Medium            int     `json:"medium"`
	Low               int     `json:"low"`
	AvgDaysToStockout float64 `json:"avg_days_to_stockout"`
	LocationsAffected int     `json:"locations_affected"`
}

// Anomaly is an unusually large day-over-day stock movement.
type Anomaly struct {
	SKUID     string    `json:"sku_id"`
	Category  string    `json:"category,omitempty"`
	Location  string    `json:"location"`
	Date      time.Time `json:"date"`
	Quantity  float64   `json:"quantity"`
	Change    float64   `json:"change"`
	AvgChange float64   `json:"avg_change"`
	StdChange float64   `json:"std_change"`
}
