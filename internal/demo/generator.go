// Package demo builds a reproducible inventory data set for running the API
// without a warehouse.
package demo

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	DefaultSeed        = 42
	DefaultHistoryDays = 90
)

// Locations served by the demo network.
var Locations = []string{
	"City Hospital - Main",
	"City Hospital - Pharmacy",
	"City Hospital - Emergency",
	"District Health Center",
	"Community Clinic North",
	"Community Clinic South",
	"NGO Distribution Center",
	"Public Distribution System - Zone A",
	"Public Distribution System - Zone B",
	"Rural Health Post",
}

type categorySpec struct {
	name      string
	prefix    string
	items     []string
	minDaily  int
	maxDaily  int
	minCost   float64
	maxCost   float64
	suppliers []string
}

var categories = []categorySpec{
	{
		name:   "medicines",
		prefix: "MED",
		items: []string{
			"Paracetamol 500mg", "Amoxicillin 250mg", "Ibuprofen 400mg",
			"Aspirin 100mg", "Metformin 500mg", "Omeprazole 20mg",
			"Ciprofloxacin 500mg", "Azithromycin 500mg", "Insulin 100U/ml",
			"Salbutamol Inhaler",
		},
		minDaily: 5, maxDaily: 30,
		minCost: 2, maxCost: 40,
		suppliers: []string{"MedSupply Co", "PharmaDirect", "HealthLine Distributors"},
	},
	{
		name:   "food",
		prefix: "FOOD",
		items: []string{
			"Rice (kg)", "Wheat Flour (kg)", "Lentils (kg)", "Cooking Oil (L)",
			"Sugar (kg)", "Salt (kg)", "Milk Powder (kg)", "Canned Beans",
			"Pasta (kg)", "Baby Food",
		},
		minDaily: 10, maxDaily: 50,
		minCost: 0.5, maxCost: 8,
		suppliers: []string{"AgriFoods Ltd", "National Grain Board"},
	},
	{
		name:   "supplies",
		prefix: "SUP",
		items: []string{
			"Surgical Masks (box)", "Gloves (box)", "Hand Sanitizer (L)",
			"Bandages (pack)", "Syringes (pack)", "Cotton Swabs (pack)",
			"Thermometers", "Blood Pressure Monitor", "First Aid Kit",
			"Disinfectant (L)",
		},
		minDaily: 3, maxDaily: 25,
		minCost: 1, maxCost: 60,
		suppliers: []string{"MedSupply Co", "CareGear International"},
	},
}

// Categories returns the demo category names in generation order.
func Categories() []string {
	out := make([]string, 0, len(categories))
	for _, c := range categories {
		out = append(out, c.name)
	}
	return out
}

// Options controls the generator.
type Options struct {
	Seed        int64
	HistoryDays int
	// End is the date of the last simulated day. Zero means today.
	End time.Time
}

// Dataset is the generated history plus the attributes that do not change day to day.
type Dataset struct {
	Dates   []time.Time
	History []domain.StockHistoryPoint

	templates []domain.InventoryItem
	// quantities[i][d] is the closing stock of template i on Dates[d].
	quantities [][]float64
	sales      []float64
}

// Generate simulates HistoryDays of consumption for every location x item.
// Stock is depleted by a noisy daily draw; once it falls below the reorder
// point a replenishment to max stock is ordered and arrives after the lead time.
func Generate(opts Options) *Dataset {
	if opts.Seed == 0 {
		opts.Seed = DefaultSeed
	}
	if opts.HistoryDays <= 0 {
		opts.HistoryDays = DefaultHistoryDays
	}
	end := opts.End
	if end.IsZero() {
		end = time.Now()
	}
	end = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)

	rng := rand.New(rand.NewSource(opts.Seed))

	ds := &Dataset{Dates: make([]time.Time, opts.HistoryDays)}
	for d := 0; d < opts.HistoryDays; d++ {
		ds.Dates[d] = end.AddDate(0, 0, d-opts.HistoryDays+1)
	}

	for _, location := range Locations {
		for _, cat := range categories {
			for idx, name := range cat.items {
				tmpl, qty, sales := simulateItem(rng, cat, idx, name, location, opts.HistoryDays)
				ds.templates = append(ds.templates, tmpl)
				ds.quantities = append(ds.quantities, qty)
				ds.sales = append(ds.sales, sales)

				for d, q := range qty {
					ds.History = append(ds.History, domain.StockHistoryPoint{
						SKUID:    tmpl.SKUID,
						Category: tmpl.Category,
						Location: location,
						Date:     ds.Dates[d],
						Quantity: q,
					})
				}
			}
		}
	}

	return ds
}

func simulateItem(rng *rand.Rand, cat categorySpec, idx int, name, location string, days int) (domain.InventoryItem, []float64, float64) {
	base := 100 + rng.Intn(901)
	reorderPoint := math.Floor(float64(base) * 0.25)
	maxStock := math.Floor(float64(base) * 1.5)
	leadTime := 3 + rng.Intn(12)
	unitCost := roundTo(cat.minCost+rng.Float64()*(cat.maxCost-cat.minCost), 2)

	tmpl := domain.InventoryItem{
		SKUID:             fmt.Sprintf("%s-%03d", cat.prefix, idx+1),
		SKUName:           name,
		Category:          cat.name,
		Location:          location,
		ABCClass:          classForCost(cat, unitCost),
		ReorderPoint:      reorderPoint,
		SafetyStock:       math.Floor(reorderPoint / 2),
		LeadTimeDays:      float64(leadTime),
		MaxStock:          maxStock,
		UnitCostUSD:       unitCost,
		SupplierName:      cat.suppliers[rng.Intn(len(cat.suppliers))],
		SupplierOnTimePct: roundTo(80+rng.Float64()*19, 1),
	}

	stock := float64(base)
	arrival := -1
	var consumed float64
	qty := make([]float64, days)
	for d := 0; d < days; d++ {
		if d == arrival {
			stock = maxStock
			arrival = -1
		}

		draw := cat.minDaily + rng.Intn(cat.maxDaily-cat.minDaily+1)
		use := math.Floor(float64(draw) * (0.7 + rng.Float64()*0.6))
		consumed += use
		stock = math.Max(0, stock-use)

		if stock < reorderPoint && arrival < 0 {
			arrival = d + leadTime
		}
		qty[d] = stock
	}

	return tmpl, qty, roundTo(consumed/float64(days), 2)
}

// classForCost maps the unit cost to a tier within the category price range.
func classForCost(cat categorySpec, cost float64) domain.ABCClass {
	span := cat.maxCost - cat.minCost
	switch {
	case cost >= cat.minCost+span*2/3:
		return domain.ClassA
	case cost >= cat.minCost+span/3:
		return domain.ClassB
	default:
		return domain.ClassC
	}
}

// Latest returns the last simulated day.
func (ds *Dataset) Latest() time.Time {
	if len(ds.Dates) == 0 {
		return time.Time{}
	}
	return ds.Dates[len(ds.Dates)-1]
}

// DayIndex returns the position of date in Dates, or -1.
func (ds *Dataset) DayIndex(date time.Time) int {
	for i, d := range ds.Dates {
		if d.Equal(date) {
			return i
		}
	}
	return -1
}

// SnapshotAt returns every item as it stood at the end of Dates[day].
func (ds *Dataset) SnapshotAt(day int) []domain.InventoryItem {
	if day < 0 || day >= len(ds.Dates) {
		return []domain.InventoryItem{}
	}

	items := make([]domain.InventoryItem, 0, len(ds.templates))
	for i, tmpl := range ds.templates {
		item := tmpl
		item.QuantityOnHand = ds.quantities[i][day]
		item.QuantityReserved = math.Floor(item.QuantityOnHand * 0.05)
		item.AvgDailySales = ds.sales[i]
		item.LastUpdated = ds.Dates[day]
		items = append(items, item)
	}
	return items
}

// Snapshot returns the latest day.
func (ds *Dataset) Snapshot() []domain.InventoryItem {
	return ds.SnapshotAt(len(ds.Dates) - 1)
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
