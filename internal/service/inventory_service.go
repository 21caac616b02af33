package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/andresuchdata/stockwatch/internal/cache"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/messaging"
	"github.com/andresuchdata/stockwatch/internal/metrics"
	"github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/internal/repository"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrItemNotFound is returned when a SKU lookup matches nothing.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidHorizon is returned for a forecast horizon above the configured limit.
	ErrInvalidHorizon = errors.New("invalid forecast horizon")
	// ErrInvalidTrendWindow is returned for a trend window outside TrendWindows.
	ErrInvalidTrendWindow = errors.New("invalid trend window")
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// InventoryOptions tune evaluation.
type InventoryOptions struct {
	Source      string
	Planner     stock_health.PlannerOptions
	Forecast    stock_health.ForecastOptions
	Seed        int64 // 0 seeds each request from the clock
	TopCritical int
}

// InventoryService loads a snapshot, evaluates it and serves the derived views.
// Every call works on its own copy of the data.
type InventoryService struct {
	repo      repository.InventoryRepository
	cache     cache.OverviewCache
	publisher messaging.AlertPublisher
	metrics   *metrics.Metrics
	opts      InventoryOptions
	now       func() time.Time
}

func NewInventoryService(
	repo repository.InventoryRepository,
	cacheImpl cache.OverviewCache,
	publisher messaging.AlertPublisher,
	m *metrics.Metrics,
	opts InventoryOptions,
) *InventoryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopOverviewCache()
	}
	if publisher == nil {
		publisher = messaging.NewNoopAlertPublisher()
	}
	if opts.Source == "" {
		opts.Source = "warehouse"
	}
	return &InventoryService{
		repo:      repo,
		cache:     cacheImpl,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
	}
}

// evaluate loads the snapshot for filter and runs classifier and planner over it.
// Status filters are applied after classification.
func (s *InventoryService) evaluate(ctx context.Context, filter domain.InventoryFilter) ([]domain.EvaluatedItem, string, error) {
	raw, date, err := s.repo.GetSnapshot(ctx, filter)
	if err != nil {
		return nil, "", err
	}

	calc := stock_health.NewInventoryCalculator(s.opts.Planner, nil)
	evaluated, err := calc.CalculateAll(ctx, raw)
	if err != nil {
		return nil, "", err
	}

	var counts domain.StatusCounts
	out := make([]domain.EvaluatedItem, 0, len(evaluated))
	for _, item := range evaluated {
		counts.Add(item.StockStatus)
		if filter.MatchesStatus(item.StockStatus) {
			out = append(out, item)
		}
	}
	s.metrics.ObserveEvaluation(s.opts.Source, counts)

	log.Debug().
		Str("snapshot_date", date).
		Int("loaded", len(raw)).
		Int("matched", len(out)).
		Msg("inventory: snapshot evaluated")

	return out, date, nil
}

func (s *InventoryService) aggregator() *stock_health.InventoryAggregator {
	return stock_health.NewInventoryAggregator(s.opts.TopCritical)
}

// MaxHorizonDays is the largest horizon GetForecasts and GetItemForecast accept.
func (s *InventoryService) MaxHorizonDays() int {
	return s.opts.Forecast.HorizonLimit()
}

func (s *InventoryService) forecaster(horizon int) (*stock_health.DemandForecaster, error) {
	if limit := s.MaxHorizonDays(); horizon > limit {
		return nil, fmt.Errorf("%w: %d days exceeds the limit of %d", ErrInvalidHorizon, horizon, limit)
	}
	opts := s.opts.Forecast
	if horizon > 0 {
		opts.HorizonDays = horizon
	}
	return stock_health.NewSeededForecaster(opts, s.opts.Seed), nil
}

// ItemsPage is one page of evaluated items.
type ItemsPage struct {
	Items        []domain.EvaluatedItem `json:"items"`
	Total        int                    `json:"total"`
	Page         int                    `json:"page"`
	PageSize     int                    `json:"page_size"`
	SnapshotDate string                 `json:"snapshot_date"`
}

func (s *InventoryService) GetItems(ctx context.Context, filter domain.InventoryFilter) (*ItemsPage, error) {
	items, date, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}

	page, size := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}

	return &ItemsPage{
		Items:        items[start:end],
		Total:        len(items),
		Page:         page,
		PageSize:     size,
		SnapshotDate: date,
	}, nil
}

// GetItemForecast evaluates one SKU, optionally at one location, with a forecast attached.
func (s *InventoryService) GetItemForecast(ctx context.Context, skuID, location string, filter domain.InventoryFilter, horizon int) ([]domain.EvaluatedItem, error) {
	forecaster, err := s.forecaster(horizon)
	if err != nil {
		return nil, err
	}

	filter.SKUIDs = []string{skuID}
	if location != "" {
		filter.Locations = []string{location}
	}

	raw, _, err := s.repo.GetSnapshot(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrItemNotFound
	}

	calc := stock_health.NewInventoryCalculator(s.opts.Planner, forecaster)
	return calc.CalculateAll(ctx, raw)
}

// GetOverview returns the aggregated overview, served from cache when possible.
func (s *InventoryService) GetOverview(ctx context.Context, filter domain.InventoryFilter) (*domain.InventoryOverview, error) {
	if overview, ok, err := s.cache.GetOverview(ctx, filter); err == nil && ok {
		return overview, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get overview failed")
	}

	items, date, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.overviewOf(ctx, filter, items, date), nil
}

// overviewOf aggregates already evaluated items and refreshes the cache entry.
func (s *InventoryService) overviewOf(ctx context.Context, filter domain.InventoryFilter, items []domain.EvaluatedItem, date string) *domain.InventoryOverview {
	overview := s.aggregator().Overview(items)
	overview.SnapshotDate = date

	if err := s.cache.SetOverview(ctx, filter, &overview); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set overview failed")
	}
	return &overview
}

func (s *InventoryService) GetLocationBreakdown(ctx context.Context, filter domain.InventoryFilter) ([]domain.BucketSummary, error) {
	items, _, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator().ByLocation(items), nil
}

func (s *InventoryService) GetCategoryBreakdown(ctx context.Context, filter domain.InventoryFilter) ([]domain.BucketSummary, error) {
	items, _, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator().ByCategory(items), nil
}

func (s *InventoryService) GetABCBreakdown(ctx context.Context, filter domain.InventoryFilter) ([]domain.ABCSummary, error) {
	items, _, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator().ByABCClass(items), nil
}

func (s *InventoryService) GetHeatmap(ctx context.Context, filter domain.InventoryFilter) ([]domain.HeatmapCell, error) {
	items, _, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.aggregator().Heatmap(items), nil
}

// ReorderList is the ranked list of items to order.
type ReorderList struct {
	Items        []domain.EvaluatedItem `json:"items"`
	Summary      domain.ReorderSummary  `json:"summary"`
	SnapshotDate string                 `json:"snapshot_date"`
}

func (s *InventoryService) GetReorderList(ctx context.Context, filter domain.InventoryFilter) (*ReorderList, error) {
	items, date, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	list := stock_health.BuildReorderList(items)
	return &ReorderList{
		Items:        list,
		Summary:      stock_health.SummarizeReorder(list),
		SnapshotDate: date,
	}, nil
}

// Forecasts holds per-item forecasts, soonest stockout first.
type Forecasts struct {
	Forecasts    []domain.ItemForecast  `json:"forecasts"`
	Summary      domain.ForecastSummary `json:"summary"`
	SnapshotDate string                 `json:"snapshot_date"`
}

func (s *InventoryService) GetForecasts(ctx context.Context, filter domain.InventoryFilter, horizon int) (*Forecasts, error) {
	forecaster, err := s.forecaster(horizon)
	if err != nil {
		return nil, err
	}

	items, date, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.forecastsOf(ctx, forecaster, items, date)
}

func (s *InventoryService) forecastsOf(ctx context.Context, forecaster *stock_health.DemandForecaster, items []domain.EvaluatedItem, date string) (*Forecasts, error) {
	raw := make([]domain.InventoryItem, len(items))
	for i, item := range items {
		raw[i] = item.InventoryItem
	}

	forecasts, truncated, err := forecaster.ForecastAll(ctx, raw)
	if err != nil {
		return nil, err
	}
	if truncated {
		log.Warn().Int("items", len(raw)).Int("forecast", len(forecasts)).Msg("inventory: forecast truncated")
	}

	out := make([]domain.ItemForecast, 0, len(forecasts))
	for i, fc := range forecasts {
		item := raw[i]
		out = append(out, domain.ItemForecast{
			SKUID:          item.SKUID,
			SKUName:        item.SKUName,
			Category:       item.Category,
			Location:       item.Location,
			QuantityOnHand: item.QuantityOnHand,
			AvgDailySales:  item.AvgDailySales,
			Forecast:       fc,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PredictedDaysToStockout < out[j].PredictedDaysToStockout
	})

	return &Forecasts{
		Forecasts:    out,
		Summary:      stock_health.SummarizeForecasts(out, truncated),
		SnapshotDate: date,
	}, nil
}

// Alerts is the current alert set for a snapshot.
type Alerts struct {
	Alerts       []domain.Alert      `json:"alerts"`
	Summary      domain.AlertSummary `json:"summary"`
	SnapshotDate string              `json:"snapshot_date"`
}

// GetAlerts builds alerts for the snapshot. When publish is set they are also
// handed to the alert publisher; publish failures are logged only.
func (s *InventoryService) GetAlerts(ctx context.Context, filter domain.InventoryFilter, publish bool) (*Alerts, error) {
	items, date, err := s.evaluate(ctx, filter)
	if err != nil {
		return nil, err
	}

	alerts := stock_health.BuildAlerts(items, s.now().UTC())
	if publish {
		if err := s.publisher.PublishAlerts(ctx, alerts); err != nil {
			log.Warn().Err(err).Int("alerts", len(alerts)).Msg("inventory: publish alerts failed")
		} else {
			s.metrics.AlertsPublished(len(alerts))
		}
	}

	return &Alerts{
		Alerts:       alerts,
		Summary:      stock_health.SummarizeAlerts(alerts),
		SnapshotDate: date,
	}, nil
}

func (s *InventoryService) GetAnomalies(ctx context.Context, filter domain.InventoryFilter, days, limit int) ([]domain.Anomaly, error) {
	if days <= 0 {
		days = 30
	}
	history, err := s.repo.GetStockHistory(ctx, filter, days)
	if err != nil {
		return nil, err
	}
	return stock_health.DetectAnomalies(history, limit), nil
}

// Dashboard bundles the overview with alert, forecast and anomaly summaries.
type Dashboard struct {
	Overview  *domain.InventoryOverview `json:"overview"`
	Alerts    domain.AlertSummary       `json:"alerts"`
	Forecasts domain.ForecastSummary    `json:"forecasts"`
	Anomalies []domain.Anomaly          `json:"anomalies"`
}

// GetDashboard evaluates the snapshot once and derives the overview, alert and
// forecast summaries from it. Anomalies are loaded from history concurrently.
func (s *InventoryService) GetDashboard(ctx context.Context, filter domain.InventoryFilter, days int) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		forecaster, err := s.forecaster(0)
		if err != nil {
			return err
		}
		items, date, err := s.evaluate(gctx, filter)
		if err != nil {
			return err
		}

		d.Overview = s.overviewOf(gctx, filter, items, date)
		d.Alerts = stock_health.SummarizeAlerts(stock_health.BuildAlerts(items, s.now().UTC()))

		forecasts, err := s.forecastsOf(gctx, forecaster, items, date)
		if err != nil {
			return err
		}
		d.Forecasts = forecasts.Summary
		return nil
	})
	g.Go(func() error {
		anomalies, err := s.GetAnomalies(gctx, filter, days, 10)
		d.Anomalies = anomalies
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// TrendWindows are the accepted look-back windows, in days, for GetTrends.
var TrendWindows = []int{7, 14, 30, 60, 90}

// Trends is the stock and consumption history by category plus the current
// location comparison.
type Trends struct {
	domain.TrendReport
	Locations    []domain.LocationComparison `json:"locations"`
	SnapshotDate string                      `json:"snapshot_date"`
}

// GetTrends aggregates the last days of history by date and category.
func (s *InventoryService) GetTrends(ctx context.Context, filter domain.InventoryFilter, days int) (*Trends, error) {
	if days <= 0 {
		days = 30
	}
	valid := false
	for _, w := range TrendWindows {
		valid = valid || w == days
	}
	if !valid {
		return nil, fmt.Errorf("%w: %d days, want one of %v", ErrInvalidTrendWindow, days, TrendWindows)
	}

	var (
		history []domain.StockHistoryPoint
		items   []domain.EvaluatedItem
		date    string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		// one extra day so the first day in the window has a previous quantity
		history, err = s.repo.GetStockHistory(gctx, filter, days+1)
		return err
	})
	g.Go(func() error {
		var err error
		items, date, err = s.evaluate(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Trends{
		TrendReport:  stock_health.Trends(history, days),
		Locations:    stock_health.CompareLocations(items),
		SnapshotDate: date,
	}, nil
}

func (s *InventoryService) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	return s.repo.GetFilterOptions(ctx)
}

func (s *InventoryService) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return s.repo.GetAvailableDates(ctx, limit)
}

// InvalidateCache drops every cached overview, e.g. after a pipeline load.
func (s *InventoryService) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}
