package stock_health

import (
	"sort"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/shopspring/decimal"
)

// BuildReorderList keeps the items that need an order and ranks them by
// priority desc, then days until stockout asc.
func BuildReorderList(items []domain.EvaluatedItem) []domain.EvaluatedItem {
	list := make([]domain.EvaluatedItem, 0)
	for _, item := range items {
		if item.NeedsReorder || item.Urgent {
			list = append(list, item)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		x, y := list[i], list[j]
		if x.PriorityScore != y.PriorityScore {
			return x.PriorityScore > y.PriorityScore
		}
		if x.DaysUntilStockout != y.DaysUntilStockout {
			return x.DaysUntilStockout < y.DaysUntilStockout
		}
		if x.Location != y.Location {
			return x.Location < y.Location
		}
		return x.SKUID < y.SKUID
	})
	return list
}

// SummarizeReorder totals a reorder list.
func SummarizeReorder(list []domain.EvaluatedItem) domain.ReorderSummary {
	total := decimal.Zero
	suppliers := make(map[string]struct{})
	urgent := 0
	for _, item := range list {
		total = total.Add(decimal.NewFromFloat(item.EstimatedOrderValueUSD))
		if item.Urgent {
			urgent++
		}
		if item.SupplierName != "" {
			suppliers[item.SupplierName] = struct{}{}
		}
	}

	return domain.ReorderSummary{
		Items:              len(list),
		UrgentItems:        urgent,
		TotalOrderValueUSD: total.Round(2).InexactFloat64(),
		Suppliers:          len(suppliers),
	}
}

// SummarizeForecasts counts forecasts per stockout risk bucket.
func SummarizeForecasts(forecasts []domain.ItemForecast, truncated bool) domain.ForecastSummary {
	s := domain.ForecastSummary{Items: len(forecasts), Truncated: truncated}
	accuracy := decimal.Zero
	for _, f := range forecasts {
		switch f.StockoutRisk {
		case domain.RiskHigh:
			s.High++
		case domain.RiskModerate:
			s.Moderate++
		default:
			s.Low++
		}
		accuracy = accuracy.Add(decimal.NewFromFloat(f.ModelAccuracy))
	}
	s.AvgModelAccuracy = mean(accuracy, len(forecasts))
	return s
}
