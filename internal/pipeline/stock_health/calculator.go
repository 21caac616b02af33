package stock_health

import (
	"context"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// InventoryCalculator runs the per-item components over a snapshot.
//
// Each calculator carries its own forecaster and therefore its own random source;
// build a fresh one for every request or pipeline file.
type InventoryCalculator struct {
	classifier *StockClassifier
	planner    *ReorderPlanner
	forecaster *DemandForecaster
}

// NewInventoryCalculator creates a new inventory calculator. forecaster may be nil
// when forecasts are not needed.
func NewInventoryCalculator(planner PlannerOptions, forecaster *DemandForecaster) *InventoryCalculator {
	return &InventoryCalculator{
		classifier: NewStockClassifier(),
		planner:    NewReorderPlanner(planner),
		forecaster: forecaster,
	}
}

// Calculate evaluates one item without a forecast.
func (ic *InventoryCalculator) Calculate(item domain.InventoryItem) domain.EvaluatedItem {
	return domain.EvaluatedItem{
		InventoryItem: item,
		StockHealth:   ic.classifier.Classify(item),
		ReorderPlan:   ic.planner.Plan(item),
		Available:     item.AvailableStock(),
		ValueUSD:      roundFloat(item.InventoryValueUSD(), 2),
	}
}

// CalculateAll evaluates every item. When a forecaster is configured, forecasts are
// attached to at most its MaxItems leading items.
func (ic *InventoryCalculator) CalculateAll(ctx context.Context, items []domain.InventoryItem) ([]domain.EvaluatedItem, error) {
	out := make([]domain.EvaluatedItem, 0, len(items))
	for i, item := range items {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		evaluated := ic.Calculate(item)
		if ic.forecaster != nil && i < ic.forecaster.maxItems {
			fc := ic.forecaster.Forecast(item)
			evaluated.Forecast = &fc
		}
		out = append(out, evaluated)
	}
	return out, nil
}
