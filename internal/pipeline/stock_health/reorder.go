package stock_health

import (
	"math"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	// leadTimeCoverFactor pads the lead-time demand when sizing an order.
	leadTimeCoverFactor = 1.5
	daysPerYear         = 365
)

// PlannerOptions drive the economic order quantity calculation.
type PlannerOptions struct {
	OrderingCostUSD float64 // fixed cost per purchase order
	HoldingRate     float64 // yearly holding cost as a fraction of unit cost
}

// DefaultPlannerOptions returns sensible defaults
func DefaultPlannerOptions() PlannerOptions {
	return PlannerOptions{
		OrderingCostUSD: 50,
		HoldingRate:     0.25,
	}
}

// ReorderPlanner sizes replenishment orders and ranks their urgency.
type ReorderPlanner struct {
	opts PlannerOptions
}

// NewReorderPlanner creates a new reorder planner
func NewReorderPlanner(opts PlannerOptions) *ReorderPlanner {
	def := DefaultPlannerOptions()
	if opts.OrderingCostUSD <= 0 {
		opts.OrderingCostUSD = def.OrderingCostUSD
	}
	if opts.HoldingRate <= 0 {
		opts.HoldingRate = def.HoldingRate
	}
	return &ReorderPlanner{opts: opts}
}

// Plan computes the reorder record for one item. It is pure and idempotent.
func (p *ReorderPlanner) Plan(item domain.InventoryItem) domain.ReorderPlan {
	lead := effectiveLeadTime(item)
	recommended := RecommendedOrderQty(item)
	priority := PriorityScore(item)

	return domain.ReorderPlan{
		RecommendedOrderQty:    recommended,
		EconomicOrderQty:       p.EconomicOrderQty(item),
		PriorityScore:          priority,
		Urgent:                 priority >= 8 || item.QuantityOnHand <= item.SafetyStock,
		NeedsReorder:           item.QuantityOnHand <= item.ReorderPoint,
		SuggestedReorderPoint:  math.Ceil(item.AvgDailySales*lead + item.SafetyStock),
		EstimatedOrderValueUSD: roundFloat(recommended*item.UnitCostUSD, 2),
	}
}

// RecommendedOrderQty = max(0, safety + daily sales x lead time x 1.5 - available), in whole units.
func RecommendedOrderQty(item domain.InventoryItem) float64 {
	target := item.SafetyStock + item.AvgDailySales*effectiveLeadTime(item)*leadTimeCoverFactor
	return math.Ceil(math.Max(0, target-item.AvailableStock()))
}

// EconomicOrderQty prefers topping up to max stock when it is known, and falls back
// to the Wilson formula when there is demand and a unit cost to hold.
func (p *ReorderPlanner) EconomicOrderQty(item domain.InventoryItem) float64 {
	if item.MaxStock > 0 {
		return math.Ceil(math.Max(0, item.MaxStock-item.QuantityOnHand))
	}

	annualDemand := item.AvgDailySales * daysPerYear
	holdingCost := item.UnitCostUSD * p.opts.HoldingRate
	if annualDemand <= 0 || holdingCost <= 0 {
		return 0
	}
	return math.Ceil(math.Sqrt(2 * annualDemand * p.opts.OrderingCostUSD / holdingCost))
}

// PriorityScore ranks urgency from 5 (routine) to 10 (out of stock).
func PriorityScore(item domain.InventoryItem) int {
	onHand := item.QuantityOnHand

	switch {
	case onHand <= 0:
		return 10
	case onHand <= item.SafetyStock*criticalSafetyRatio:
		return 9
	case onHand <= item.SafetyStock:
		return 8
	case onHand <= item.ReorderPoint*0.75:
		return 7
	case onHand <= item.ReorderPoint:
		return 6
	default:
		return 5
	}
}

func effectiveLeadTime(item domain.InventoryItem) float64 {
	if item.LeadTimeDays <= 0 {
		return DefaultOptionalFields.LeadTimeDays
	}
	return item.LeadTimeDays
}
