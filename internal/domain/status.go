package domain

import "strings"

// StockStatus is the health tier assigned by the stock classifier.
type StockStatus string

const (
	StatusOutOfStock StockStatus = "OUT_OF_STOCK"
	StatusCritical   StockStatus = "CRITICAL"
	StatusLow        StockStatus = "LOW"
	StatusHealthy    StockStatus = "HEALTHY"
)

// AllStockStatuses lists statuses from most to least severe.
var AllStockStatuses = []StockStatus{StatusOutOfStock, StatusCritical, StatusLow, StatusHealthy}

var stockStatusLabels = map[StockStatus]string{
	StatusOutOfStock: "Out of stock",
	StatusCritical:   "Critical",
	StatusLow:        "Low",
	StatusHealthy:    "Healthy",
}

var stockStatusCodes = map[string]StockStatus{
	"out_of_stock": StatusOutOfStock,
	"outofstock":   StatusOutOfStock,
	"critical":     StatusCritical,
	"low":          StatusLow,
	"healthy":      StatusHealthy,
}

// Label returns a human-readable label for a stock status.
func (s StockStatus) Label() string {
	if label, ok := stockStatusLabels[s]; ok {
		return label
	}

	return "Unknown"
}

// IsCritical reports whether the status needs immediate attention.
func (s StockStatus) IsCritical() bool {
	return s == StatusOutOfStock || s == StatusCritical
}

// ParseStockStatus returns the status for a given label (case-insensitive).
func ParseStockStatus(label string) (StockStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	key = strings.ReplaceAll(key, " ", "_")
	status, ok := stockStatusCodes[key]

	return status, ok
}

// StockoutRisk buckets the forecast horizon until stock runs out.
type StockoutRisk string

const (
	RiskHigh     StockoutRisk = "HIGH"
	RiskModerate StockoutRisk = "MODERATE"
	RiskLow      StockoutRisk = "LOW"
)

// ABCClass is the value-based inventory classification.
type ABCClass string

const (
	ClassA ABCClass = "A"
	ClassB ABCClass = "B"
	ClassC ABCClass = "C"
)

// AllABCClasses lists classes in reporting order.
var AllABCClasses = []ABCClass{ClassA, ClassB, ClassC}

// ParseABCClass maps free text to a class. Unknown values fall back to C.
func ParseABCClass(value string) ABCClass {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "A":
		return ClassA
	case "B":
		return ClassB
	default:
		return ClassC
	}
}

// AlertPriority orders alerts for operators.
type AlertPriority string

const (
	PriorityCritical AlertPriority = "CRITICAL"
	PriorityHigh     AlertPriority = "HIGH"
	PriorityMedium   AlertPriority = "MEDIUM"
	PriorityLow      AlertPriority = "LOW"
)

var alertPriorityRank = map[AlertPriority]int{
	PriorityCritical: 0,
	PriorityHigh:     1,
	PriorityMedium:   2,
	PriorityLow:      3,
}

// Rank returns the sort position of the priority, lower first.
func (p AlertPriority) Rank() int {
	if r, ok := alertPriorityRank[p]; ok {
		return r
	}
	return len(alertPriorityRank)
}

// AlertType describes why an alert was raised.
type AlertType string

const (
	AlertStockout AlertType = "STOCKOUT"
	AlertCritical AlertType = "CRITICAL"
	AlertLowStock AlertType = "LOW_STOCK"
	AlertUrgent   AlertType = "URGENT"
)
