package stock_health

import (
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildAlerts raises one alert per item that is out of stock, critical, low or urgent.
// Alerts are ordered by priority, then by days until stockout.
func BuildAlerts(items []domain.EvaluatedItem, now time.Time) []domain.Alert {
	alerts := make([]domain.Alert, 0)
	for _, item := range items {
		alertType, priority, ok := classifyAlert(item)
		if !ok {
			continue
		}
		alerts = append(alerts, domain.Alert{
			ID:                  uuid.NewString(),
			Type:                alertType,
			Priority:            priority,
			SKUID:               item.SKUID,
			SKUName:             item.SKUName,
			Category:            item.Category,
			Location:            item.Location,
			Status:              item.StockStatus,
			QuantityOnHand:      item.QuantityOnHand,
			DaysUntilStockout:   roundFloat(item.DaysUntilStockout, 2),
			RiskScore:           item.RiskScore,
			RecommendedOrderQty: item.RecommendedOrderQty,
			Message:             alertMessage(alertType, item),
			CreatedAt:           now,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Priority.Rank(), alerts[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		if alerts[i].DaysUntilStockout != alerts[j].DaysUntilStockout {
			return alerts[i].DaysUntilStockout < alerts[j].DaysUntilStockout
		}
		if alerts[i].Location != alerts[j].Location {
			return alerts[i].Location < alerts[j].Location
		}
		return alerts[i].SKUID < alerts[j].SKUID
	})
	return alerts
}

func classifyAlert(item domain.EvaluatedItem) (domain.AlertType, domain.AlertPriority, bool) {
	switch item.StockStatus {
	case domain.StatusOutOfStock:
		return domain.AlertStockout, domain.PriorityCritical, true
	case domain.StatusCritical:
		return domain.AlertCritical, domain.PriorityHigh, true
	case domain.StatusLow:
		return domain.AlertLowStock, domain.PriorityMedium, true
	}
	if item.Urgent {
		return domain.AlertUrgent, domain.PriorityLow, true
	}
	return "", "", false
}

func alertMessage(t domain.AlertType, item domain.EvaluatedItem) string {
	switch t {
	case domain.AlertStockout:
		return fmt.Sprintf("%s is out of stock at %s", item.SKUName, item.Location)
	case domain.AlertCritical:
		return fmt.Sprintf("%s at %s is below half its safety stock (%.0f units, %.1f days left)",
			item.SKUName, item.Location, item.QuantityOnHand, item.DaysUntilStockout)
	case domain.AlertLowStock:
		return fmt.Sprintf("%s at %s is at or below its reorder point (%.0f units)",
			item.SKUName, item.Location, item.QuantityOnHand)
	default:
		return fmt.Sprintf("%s at %s needs an urgent reorder of %.0f units",
			item.SKUName, item.Location, item.RecommendedOrderQty)
	}
}

// SummarizeAlerts counts alerts per priority. The average days to stockout skips
// items with no consumption.
func SummarizeAlerts(alerts []domain.Alert) domain.AlertSummary {
	summary := domain.AlertSummary{Total: len(alerts)}
	locations := make(map[string]struct{})
	days := decimal.Zero
	daysN := 0

	for _, a := range alerts {
		switch a.Priority {
		case domain.PriorityCritical:
			summary.Critical++
		case domain.PriorityHigh:
			summary.High++
		case domain.PriorityMedium:
			summary.Medium++
		case domain.PriorityLow:
			summary.Low++
		}
		locations[a.Location] = struct{}{}
		if a.DaysUntilStockout < domain.NoStockoutDays {
			days = days.Add(decimal.NewFromFloat(a.DaysUntilStockout))
			daysN++
		}
	}

	summary.LocationsAffected = len(locations)
	summary.AvgDaysToStockout = mean(days, daysN)
	return summary
}
