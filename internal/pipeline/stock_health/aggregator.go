package stock_health

import (
	"sort"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/shopspring/decimal"
)

const defaultTopCritical = 10

var hundred = decimal.NewFromInt(100)

// InventoryAggregator rolls evaluated items up by location, category and ABC class.
// Sums are kept in decimal so results do not depend on item order.
type InventoryAggregator struct {
	topCritical int
}

// NewInventoryAggregator creates an aggregator that keeps topCritical items in the overview.
func NewInventoryAggregator(topCritical int) *InventoryAggregator {
	if topCritical <= 0 {
		topCritical = defaultTopCritical
	}
	return &InventoryAggregator{topCritical: topCritical}
}

type bucketAcc struct {
	name    string
	counts  domain.StatusCounts
	units   decimal.Decimal
	value   decimal.Decimal
	risk    decimal.Decimal
	days    decimal.Decimal
	daysN   int
	reorder int
	onTime  decimal.Decimal
	onTimeN int
}

func (b *bucketAcc) add(item domain.EvaluatedItem) {
	b.counts.Add(item.StockStatus)
	b.units = b.units.Add(decimal.NewFromFloat(item.EffectiveOnHand()))
	b.value = b.value.Add(decimal.NewFromFloat(item.InventoryValueUSD()))
	b.risk = b.risk.Add(decimal.NewFromFloat(item.RiskScore))
	if item.HasStockoutHorizon() {
		b.days = b.days.Add(decimal.NewFromFloat(item.DaysUntilStockout))
		b.daysN++
	}
	if item.NeedsReorder {
		b.reorder++
	}
	if item.SupplierOnTimePct > 0 {
		b.onTime = b.onTime.Add(decimal.NewFromFloat(item.SupplierOnTimePct))
		b.onTimeN++
	}
}

func (b *bucketAcc) summary() domain.BucketSummary {
	n := b.counts.Total()
	return domain.BucketSummary{
		Name:                 b.name,
		Items:                n,
		Status:               b.counts,
		TotalUnits:           b.units.Round(2).InexactFloat64(),
		TotalValueUSD:        b.value.Round(2).InexactFloat64(),
		AvgRiskScore:         mean(b.risk, n),
		HealthScore:          healthScore(b.counts),
		AvgDaysCoverage:      mean(b.days, b.daysN),
		ItemsToReorder:       b.reorder,
		AvgSupplierOnTimePct: mean(b.onTime, b.onTimeN),
	}
}

// ByLocation groups items by location, most critical first.
func (a *InventoryAggregator) ByLocation(items []domain.EvaluatedItem) []domain.BucketSummary {
	return groupBy(items, func(i domain.EvaluatedItem) string { return i.Location })
}

// ByCategory groups items by category, most critical first.
func (a *InventoryAggregator) ByCategory(items []domain.EvaluatedItem) []domain.BucketSummary {
	return groupBy(items, func(i domain.EvaluatedItem) string { return i.Category })
}

// ByABCClass returns one entry per class A, B and C, including empty classes.
func (a *InventoryAggregator) ByABCClass(items []domain.EvaluatedItem) []domain.ABCSummary {
	type acc struct {
		count    int
		value    decimal.Decimal
		critical int
	}

	byClass := make(map[domain.ABCClass]*acc, len(domain.AllABCClasses))
	for _, c := range domain.AllABCClasses {
		byClass[c] = &acc{}
	}

	total := decimal.Zero
	for _, item := range items {
		b, ok := byClass[item.ABCClass]
		if !ok {
			b = byClass[domain.ClassC]
		}
		v := decimal.NewFromFloat(item.InventoryValueUSD())
		b.count++
		b.value = b.value.Add(v)
		total = total.Add(v)
		if item.StockStatus.IsCritical() {
			b.critical++
		}
	}

	out := make([]domain.ABCSummary, 0, len(domain.AllABCClasses))
	for _, c := range domain.AllABCClasses {
		b := byClass[c]
		share := 0.0
		if total.IsPositive() {
			share = b.value.Div(total).Mul(hundred).Round(2).InexactFloat64()
		}
		out = append(out, domain.ABCSummary{
			Class:         c,
			Count:         b.count,
			TotalValueUSD: b.value.Round(2).InexactFloat64(),
			CriticalCount: b.critical,
			ValueSharePct: share,
		})
	}
	return out
}

// Heatmap returns one cell per location and category pair, ordered by location then category.
func (a *InventoryAggregator) Heatmap(items []domain.EvaluatedItem) []domain.HeatmapCell {
	type key struct{ location, category string }
	cells := make(map[key]*bucketAcc)
	for _, item := range items {
		k := key{item.Location, item.Category}
		b, ok := cells[k]
		if !ok {
			b = &bucketAcc{name: item.Location}
			cells[k] = b
		}
		b.add(item)
	}

	out := make([]domain.HeatmapCell, 0, len(cells))
	for k, b := range cells {
		n := b.counts.Total()
		out = append(out, domain.HeatmapCell{
			Location:     k.location,
			Category:     k.category,
			Items:        n,
			Critical:     b.counts.OutOfStock + b.counts.Critical,
			Low:          b.counts.Low,
			AvgRiskScore: mean(b.risk, n),
			HealthScore:  healthScore(b.counts),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Location != out[j].Location {
			return out[i].Location < out[j].Location
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Overview builds the full aggregated picture used by dashboards and insight prompts.
func (a *InventoryAggregator) Overview(items []domain.EvaluatedItem) domain.InventoryOverview {
	all := &bucketAcc{}
	var (
		timing    domain.CriticalTiming
		reorder   domain.ReorderStats
		orderSum  = decimal.Zero
		locations = make(map[string]struct{})
		cats      = make(map[string]struct{})
	)

	for _, item := range items {
		all.add(item)
		locations[item.Location] = struct{}{}
		cats[item.Category] = struct{}{}

		if item.HasStockoutHorizon() {
			switch d := item.DaysUntilStockout; {
			case d <= 3:
				timing.Within3Days++
				timing.Within7Days++
				timing.Within14Days++
			case d <= 7:
				timing.Within7Days++
				timing.Within14Days++
			case d <= 14:
				timing.Within14Days++
			}
		}

		if item.NeedsReorder {
			reorder.ItemsToReorder++
		}
		if item.Urgent {
			reorder.UrgentItems++
		}
		if item.NeedsReorder || item.Urgent {
			orderSum = orderSum.Add(decimal.NewFromFloat(item.EstimatedOrderValueUSD))
		}
	}
	reorder.TotalOrderValueUSD = orderSum.Round(2).InexactFloat64()

	summary := all.summary()
	return domain.InventoryOverview{
		TotalItems:        len(items),
		TotalLocations:    len(locations),
		TotalCategories:   len(cats),
		TotalUnits:        summary.TotalUnits,
		TotalValueUSD:     summary.TotalValueUSD,
		AvgRiskScore:      summary.AvgRiskScore,
		HealthScore:       summary.HealthScore,
		StatusBreakdown:   summary.Status,
		CriticalTiming:    timing,
		AvgDaysToStockout: summary.AvgDaysCoverage,
		ABCAnalysis:       a.ByABCClass(items),
		Locations:         a.ByLocation(items),
		Categories:        a.ByCategory(items),
		Reorder:           reorder,
		TopCriticalItems:  a.TopCritical(items),
	}
}

// TopCritical returns the riskiest non-healthy items: risk desc, days asc, then identity.
func (a *InventoryAggregator) TopCritical(items []domain.EvaluatedItem) []domain.CriticalItem {
	candidates := make([]domain.EvaluatedItem, 0)
	for _, item := range items {
		if item.StockStatus != domain.StatusHealthy {
			candidates = append(candidates, item)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		x, y := candidates[i], candidates[j]
		if x.RiskScore != y.RiskScore {
			return x.RiskScore > y.RiskScore
		}
		if x.DaysUntilStockout != y.DaysUntilStockout {
			return x.DaysUntilStockout < y.DaysUntilStockout
		}
		if x.SKUName != y.SKUName {
			return x.SKUName < y.SKUName
		}
		return x.Location < y.Location
	})

	if len(candidates) > a.topCritical {
		candidates = candidates[:a.topCritical]
	}

	out := make([]domain.CriticalItem, 0, len(candidates))
	for _, item := range candidates {
		out = append(out, domain.CriticalItem{
			SKUID:             item.SKUID,
			Name:              item.SKUName,
			Location:          item.Location,
			Category:          item.Category,
			Quantity:          item.QuantityOnHand,
			DaysUntilStockout: roundFloat(item.DaysUntilStockout, 2),
			RiskScore:         item.RiskScore,
			Status:            item.StockStatus,
		})
	}
	return out
}

func groupBy(items []domain.EvaluatedItem, keyFn func(domain.EvaluatedItem) string) []domain.BucketSummary {
	buckets := make(map[string]*bucketAcc)
	for _, item := range items {
		k := strings.TrimSpace(keyFn(item))
		b, ok := buckets[k]
		if !ok {
			b = &bucketAcc{name: k}
			buckets[k] = b
		}
		b.add(item)
	}

	out := make([]domain.BucketSummary, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.summary())
	}
	sort.Slice(out, func(i, j int) bool {
		ci := out[i].Status.OutOfStock + out[i].Status.Critical
		cj := out[j].Status.OutOfStock + out[j].Status.Critical
		if ci != cj {
			return ci > cj
		}
		if out[i].Status.Low != out[j].Status.Low {
			return out[i].Status.Low > out[j].Status.Low
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// healthScore = 100 - unhealthy / total x 100. Empty buckets score 0.
func healthScore(c domain.StatusCounts) float64 {
	n := c.Total()
	if n == 0 {
		return 0
	}
	unhealthy := decimal.NewFromInt(int64(c.Unhealthy()))
	ratio := unhealthy.Div(decimal.NewFromInt(int64(n))).Mul(hundred)
	return hundred.Sub(ratio).Round(2).InexactFloat64()
}

func mean(sum decimal.Decimal, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}
