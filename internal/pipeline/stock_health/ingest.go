package stock_health

import (
	"math"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// Resolve turns a raw row into an InventoryItem, filling optional columns from defaults.
//
// Missing lead time and daily sales take the configured defaults. Negative counts are
// clamped to zero, except quantity on hand which is kept raw so audits can see it.
func (d OptionalFieldDefaults) Resolve(raw RawInventoryRow) domain.InventoryItem {
	leadDefault := d.LeadTimeDays
	if leadDefault <= 0 {
		leadDefault = DefaultOptionalFields.LeadTimeDays
	}

	lead := valueOr(raw.LeadTimeDays, leadDefault)
	if lead <= 0 {
		lead = leadDefault
	}

	sales := valueOr(raw.AvgDailySales, d.AvgDailySales)
	if sales < 0 {
		sales = 0
	}

	class := domain.ParseABCClass(raw.ABCClass)
	if strings.TrimSpace(raw.ABCClass) == "" && d.ABCClass != "" {
		class = d.ABCClass
	}

	return domain.InventoryItem{
		SKUID:             strings.TrimSpace(raw.SKUID),
		SKUName:           strings.TrimSpace(raw.SKUName),
		Category:          strings.TrimSpace(raw.Category),
		Location:          strings.TrimSpace(raw.Location),
		ABCClass:          class,
		QuantityOnHand:    raw.QuantityOnHand,
		QuantityReserved:  nonNegative(raw.QuantityReserved),
		QuantityCommitted: nonNegative(raw.QuantityCommitted),
		ReorderPoint:      nonNegative(raw.ReorderPoint),
		SafetyStock:       nonNegative(raw.SafetyStock),
		LeadTimeDays:      lead,
		MaxStock:          nonNegative(raw.MaxStock),
		AvgDailySales:     sales,
		UnitCostUSD:       nonNegative(raw.UnitCostUSD),
		SupplierName:      strings.TrimSpace(raw.SupplierName),
		SupplierOnTimePct: math.Min(100, nonNegative(raw.SupplierOnTimePct)),
		LastUpdated:       raw.LastUpdated,
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return *v
}

func nonNegative(v *float64) float64 {
	return math.Max(0, valueOr(v, 0))
}

// floatPtr is a small helper for building raw rows.
func floatPtr(v float64) *float64 {
	return &v
}
