package stock_health

import (
	"math"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	// criticalSafetyRatio marks CRITICAL at or below half the safety stock.
	criticalSafetyRatio = 0.5

	riskOutOfStock = 100
	riskCritical   = 90
	riskLow        = 70
	riskHealthy    = 20
)

// StockClassifier assigns a stock status, days of cover and a risk score to an item.
// It uses absolute thresholds: safety stock and reorder point.
type StockClassifier struct{}

// NewStockClassifier creates a new stock classifier
func NewStockClassifier() *StockClassifier {
	return &StockClassifier{}
}

// Classify computes the health record for one item. It is pure and idempotent.
func (c *StockClassifier) Classify(item domain.InventoryItem) domain.StockHealth {
	days := DaysUntilStockout(item.QuantityOnHand, item.AvgDailySales)
	status := ClassifyStatus(item)

	return domain.StockHealth{
		DaysUntilStockout: days,
		StockStatus:       status,
		RiskScore:         RiskScore(status, days),
	}
}

// DaysUntilStockout returns on-hand divided by daily sales, or the NoStockoutDays
// sentinel when there is no consumption. Negative stock counts as zero.
func DaysUntilStockout(onHand, avgDailySales float64) float64 {
	if avgDailySales <= 0 {
		return domain.NoStockoutDays
	}
	return math.Max(0, onHand) / avgDailySales
}

// ClassifyStatus applies the thresholds in order; the first match wins.
func ClassifyStatus(item domain.InventoryItem) domain.StockStatus {
	onHand := item.EffectiveOnHand()

	switch {
	case onHand <= 0:
		return domain.StatusOutOfStock
	case onHand <= item.SafetyStock*criticalSafetyRatio:
		return domain.StatusCritical
	case onHand <= item.ReorderPoint:
		return domain.StatusLow
	default:
		return domain.StatusHealthy
	}
}

// RiskScore maps status and days of cover to 0..100.
// The result is the larger of the status tier score and the coverage score, so a
// HEALTHY item that is about to run out still ranks above one with months of cover.
func RiskScore(status domain.StockStatus, days float64) float64 {
	return math.Max(tierScore(status), coverageScore(days))
}

func tierScore(status domain.StockStatus) float64 {
	switch status {
	case domain.StatusOutOfStock:
		return riskOutOfStock
	case domain.StatusCritical:
		return riskCritical
	case domain.StatusLow:
		return riskLow
	default:
		return riskHealthy
	}
}

func coverageScore(days float64) float64 {
	switch {
	case days >= domain.NoStockoutDays:
		return 0
	case days <= 3:
		return 80
	case days <= 7:
		return 60
	case days <= 14:
		return 40
	default:
		return 0
	}
}
