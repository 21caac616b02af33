package stock_health

import (
	"math"
	"sort"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	anomalyThreshold    = 3.0
	defaultAnomalyLimit = 50
)

// DetectAnomalies flags day-over-day stock movements larger than three times the
// series' mean absolute movement. Each SKU and location pair is its own series.
// AvgChange and StdChange describe the signed movements of the series.
// Results are ordered newest first, then by the size of the movement.
func DetectAnomalies(history []domain.StockHistoryPoint, limit int) []domain.Anomaly {
	if limit <= 0 {
		limit = defaultAnomalyLimit
	}

	type seriesKey struct{ sku, location string }
	series := make(map[seriesKey][]domain.StockHistoryPoint)
	for _, p := range history {
		k := seriesKey{p.SKUID, p.Location}
		series[k] = append(series[k], p)
	}

	anomalies := make([]domain.Anomaly, 0)
	for _, points := range series {
		sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
		if len(points) < 3 {
			continue
		}

		changes := make([]float64, len(points)-1)
		sum, absSum := 0.0, 0.0
		for i := 1; i < len(points); i++ {
			changes[i-1] = points[i].Quantity - points[i-1].Quantity
			sum += changes[i-1]
			absSum += math.Abs(changes[i-1])
		}

		avg := sum / float64(len(changes))
		avgAbs := absSum / float64(len(changes))
		if avgAbs == 0 {
			continue
		}
		std := sampleStdDev(changes)

		for i, change := range changes {
			if math.Abs(change) <= anomalyThreshold*avgAbs {
				continue
			}
			p := points[i+1]
			anomalies = append(anomalies, domain.Anomaly{
				SKUID:     p.SKUID,
				Category:  p.Category,
				Location:  p.Location,
				Date:      p.Date,
				Quantity:  p.Quantity,
				Change:    roundFloat(change, 2),
				AvgChange: roundFloat(avg, 2),
				StdChange: roundFloat(std, 2),
			})
		}
	}

	sort.Slice(anomalies, func(i, j int) bool {
		if !anomalies[i].Date.Equal(anomalies[j].Date) {
			return anomalies[i].Date.After(anomalies[j].Date)
		}
		ai, aj := math.Abs(anomalies[i].Change), math.Abs(anomalies[j].Change)
		if ai != aj {
			return ai > aj
		}
		if anomalies[i].Location != anomalies[j].Location {
			return anomalies[i].Location < anomalies[j].Location
		}
		return anomalies[i].SKUID < anomalies[j].SKUID
	})

	if len(anomalies) > limit {
		anomalies = anomalies[:limit]
	}
	return anomalies
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	m := sum / float64(len(values))
	sq := 0.0
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}
