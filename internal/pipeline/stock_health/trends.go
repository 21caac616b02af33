package stock_health

import (
	"math"
	"sort"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/shopspring/decimal"
)

// Trends sums stock and consumption per day and category over the last days of
// history, counted back from the newest date present. Consumption is the drop in
// on-hand quantity from the previous point of the same SKU and location; restocks
// count as zero. Points before the window are only used as previous quantities.
func Trends(history []domain.StockHistoryPoint, days int) domain.TrendReport {
	report := domain.TrendReport{Days: days, Points: []domain.TrendPoint{}}
	if len(history) == 0 || days <= 0 {
		return report
	}

	latest := history[0].Date
	for _, p := range history[1:] {
		if p.Date.After(latest) {
			latest = p.Date
		}
	}
	from := latest.AddDate(0, 0, -(days - 1))
	report.From, report.To = from, latest

	type seriesKey struct{ sku, location string }
	series := make(map[seriesKey][]domain.StockHistoryPoint)
	for _, p := range history {
		k := seriesKey{p.SKUID, p.Location}
		series[k] = append(series[k], p)
	}

	type cellKey struct {
		date     time.Time
		category string
	}
	type cell struct {
		stock, consumption decimal.Decimal
	}
	cells := make(map[cellKey]*cell)

	for _, points := range series {
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		for i, p := range points {
			if p.Date.Before(from) {
				continue
			}
			k := cellKey{p.Date, p.Category}
			c, ok := cells[k]
			if !ok {
				c = &cell{}
				cells[k] = c
			}
			c.stock = c.stock.Add(decimal.NewFromFloat(p.Quantity))
			if i > 0 {
				used := math.Max(0, points[i-1].Quantity-p.Quantity)
				c.consumption = c.consumption.Add(decimal.NewFromFloat(used))
			}
		}
	}

	var consumed, latestStock decimal.Decimal
	for k, c := range cells {
		report.Points = append(report.Points, domain.TrendPoint{
			Date:        k.date,
			Category:    k.category,
			Stock:       c.stock.Round(2).InexactFloat64(),
			Consumption: c.consumption.Round(2).InexactFloat64(),
		})
		consumed = consumed.Add(c.consumption)
		if k.date.Equal(latest) {
			latestStock = latestStock.Add(c.stock)
		}
	}
	sort.Slice(report.Points, func(i, j int) bool {
		a, b := report.Points[i], report.Points[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Category < b.Category
	})

	report.TotalConsumption = consumed.Round(2).InexactFloat64()
	report.LatestStock = latestStock.Round(2).InexactFloat64()
	return report
}

// CompareLocations totals current stock and status counts per location, largest
// stock first.
func CompareLocations(items []domain.EvaluatedItem) []domain.LocationComparison {
	type acc struct {
		stock  decimal.Decimal
		counts domain.StatusCounts
	}
	byLocation := make(map[string]*acc)
	for _, item := range items {
		a, ok := byLocation[item.Location]
		if !ok {
			a = &acc{}
			byLocation[item.Location] = a
		}
		a.stock = a.stock.Add(decimal.NewFromFloat(item.EffectiveOnHand()))
		a.counts.Add(item.StockStatus)
	}

	out := make([]domain.LocationComparison, 0, len(byLocation))
	for name, a := range byLocation {
		out = append(out, domain.LocationComparison{
			Location:   name,
			TotalStock: a.stock.Round(2).InexactFloat64(),
			Status:     a.counts,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalStock != out[j].TotalStock {
			return out[i].TotalStock > out[j].TotalStock
		}
		return out[i].Location < out[j].Location
	})
	return out
}
