package stock_health

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	defaultHorizonDays = 14
	defaultMaxItems    = 5000

	// DefaultMaxHorizonDays caps the simulated days per item when no limit is configured.
	DefaultMaxHorizonDays = 90

	minVolatility      = 0.10
	maxVolatility      = 0.30
	volatilityScale    = 0.05
	volatilityWindow   = 30
	baseAccuracy       = 85
	minAccuracy        = 60
	maxAccuracy        = 95
	belowSafetyPenalty = 10
	confidenceBand     = 0.15

	highRiskDays     = 7
	moderateRiskDays = 14

	// ctxCheckEvery bounds how many items are simulated between cancellation checks.
	ctxCheckEvery = 64
)

// ForecastOptions configures the demand simulation.
type ForecastOptions struct {
	HorizonDays    int
	MaxHorizonDays int
	MaxItems       int
}

// DefaultForecastOptions returns sensible defaults
func DefaultForecastOptions() ForecastOptions {
	return ForecastOptions{
		HorizonDays:    defaultHorizonDays,
		MaxHorizonDays: DefaultMaxHorizonDays,
		MaxItems:       defaultMaxItems,
	}
}

// HorizonLimit is the largest horizon a forecaster built from o will simulate.
func (o ForecastOptions) HorizonLimit() int {
	if o.MaxHorizonDays <= 0 {
		return DefaultMaxHorizonDays
	}
	return o.MaxHorizonDays
}

// DemandForecaster simulates daily demand over a short horizon.
//
// A forecaster owns its random source and is not safe for concurrent use; create
// one per request or per pipeline file.
type DemandForecaster struct {
	horizon  int
	maxItems int
	rng      *rand.Rand
}

// NewDemandForecaster creates a forecaster. A nil rng is seeded from the clock.
// The horizon is clamped to HorizonLimit.
func NewDemandForecaster(opts ForecastOptions, rng *rand.Rand) *DemandForecaster {
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = defaultHorizonDays
	}
	if limit := opts.HorizonLimit(); opts.HorizonDays > limit {
		opts.HorizonDays = limit
	}
	if opts.MaxItems <= 0 {
		opts.MaxItems = defaultMaxItems
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &DemandForecaster{horizon: opts.HorizonDays, maxItems: opts.MaxItems, rng: rng}
}

// NewSeededForecaster returns a forecaster with a deterministic seed, or a clock
// seeded one when seed is 0.
func NewSeededForecaster(opts ForecastOptions, seed int64) *DemandForecaster {
	if seed == 0 {
		return NewDemandForecaster(opts, nil)
	}
	return NewDemandForecaster(opts, rand.New(rand.NewSource(seed)))
}

// Horizon returns the number of simulated days.
func (f *DemandForecaster) Horizon() int {
	return f.horizon
}

// Forecast simulates one item.
func (f *DemandForecaster) Forecast(item domain.InventoryItem) domain.Forecast {
	onHand := item.EffectiveOnHand()

	// 1. Base daily demand, floored so the simulation always consumes something
	mu := item.AvgDailySales
	if mu <= 0 {
		mu = 1
	}

	// 2. Volatility grows with the months of stock held, within fixed bounds
	v := DemandVolatility(onHand, mu)

	// 3. Draw one non-negative demand per day
	total := 0.0
	sigma := mu * v
	for d := 0; d < f.horizon; d++ {
		total += math.Max(0, mu+f.rng.NormFloat64()*sigma)
	}

	// 4. Average simulated daily demand
	avg := total / float64(f.horizon)
	if avg <= 0 {
		avg = mu
	}

	// 5. Days until the simulated demand exhausts current stock, bucketed as reported
	days := roundFloat(onHand/avg, 2)

	return domain.Forecast{
		HorizonDays:             f.horizon,
		PredictedConsumption:    roundFloat(avg, 2),
		TotalForecastedDemand:   roundFloat(total, 2),
		PredictedStock:          roundFloat(math.Max(0, onHand-total), 2),
		PredictedDaysToStockout: days,
		DemandVolatility:        roundFloat(v, 4),
		ModelAccuracy:           roundFloat(ModelAccuracy(v, item.QuantityOnHand, item.SafetyStock), 1),
		ConfidenceLower:         roundFloat(avg*(1-confidenceBand), 2),
		ConfidenceUpper:         roundFloat(avg*(1+confidenceBand), 2),
		StockoutRisk:            StockoutRiskFor(days),
	}
}

// ForecastAll simulates up to MaxItems items in order. The boolean reports whether
// the input was truncated. Cancellation is checked between items.
func (f *DemandForecaster) ForecastAll(ctx context.Context, items []domain.InventoryItem) ([]domain.Forecast, bool, error) {
	truncated := false
	if len(items) > f.maxItems {
		items = items[:f.maxItems]
		truncated = true
	}

	out := make([]domain.Forecast, 0, len(items))
	for i, item := range items {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, truncated, err
			}
		}
		out = append(out, f.Forecast(item))
	}
	return out, truncated, nil
}

// DemandVolatility = clamp(0.10, 0.30, (on hand / (mu x 30)) x 0.05).
func DemandVolatility(onHand, mu float64) float64 {
	if mu <= 0 {
		mu = 1
	}
	v := (math.Max(0, onHand) / (mu * volatilityWindow)) * volatilityScale
	return clamp(v, minVolatility, maxVolatility)
}

// ModelAccuracy is an illustrative confidence figure, not a measured error rate.
func ModelAccuracy(volatility, onHand, safetyStock float64) float64 {
	acc := baseAccuracy - volatility*50
	if onHand < safetyStock {
		acc -= belowSafetyPenalty
	}
	return clamp(acc, minAccuracy, maxAccuracy)
}

// StockoutRiskFor buckets days to stockout: HIGH below 7, MODERATE below 14, else LOW.
func StockoutRiskFor(days float64) domain.StockoutRisk {
	switch {
	case days < highRiskDays:
		return domain.RiskHigh
	case days < moderateRiskDays:
		return domain.RiskModerate
	default:
		return domain.RiskLow
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
