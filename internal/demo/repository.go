package demo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/repository"
)

// Repository serves a generated Dataset through the repository interfaces.
type Repository struct {
	data *Dataset

	mu      sync.Mutex
	exports []domain.ExportRecord
}

var (
	_ repository.InventoryRepository = (*Repository)(nil)
	_ repository.ExportLogRepository = (*Repository)(nil)
)

func NewRepository(data *Dataset) *Repository {
	return &Repository{data: data}
}

func (r *Repository) resolveDay(requested string) (int, string, error) {
	if requested == "" {
		day := len(r.data.Dates) - 1
		if day < 0 {
			return -1, "", nil
		}
		return day, r.data.Dates[day].Format("2006-01-02"), nil
	}

	date, err := time.Parse("2006-01-02", requested)
	if err != nil {
		return -1, "", fmt.Errorf("invalid snapshot date %q: %w", requested, err)
	}
	return r.data.DayIndex(date), requested, nil
}

func (r *Repository) GetSnapshot(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, string, error) {
	day, date, err := r.resolveDay(filter.SnapshotDate)
	if err != nil {
		return nil, "", err
	}

	items := []domain.InventoryItem{}
	for _, item := range r.data.SnapshotAt(day) {
		if filter.MatchesItem(item) {
			items = append(items, item)
		}
	}
	return items, date, nil
}

func (r *Repository) GetStockHistory(ctx context.Context, filter domain.InventoryFilter, days int) ([]domain.StockHistoryPoint, error) {
	if days <= 0 {
		days = 30
	}
	day, _, err := r.resolveDay(filter.SnapshotDate)
	if err != nil {
		return nil, err
	}
	if day < 0 {
		return []domain.StockHistoryPoint{}, nil
	}

	end := r.data.Dates[day]
	start := end.AddDate(0, 0, -days)

	// match against the item attributes so abc_class and sku filters apply too
	allowed := make(map[string]bool, len(r.data.templates))
	for _, tmpl := range r.data.templates {
		if filter.MatchesItem(tmpl) {
			allowed[tmpl.SKUID+"|"+tmpl.Location] = true
		}
	}

	points := []domain.StockHistoryPoint{}
	for _, p := range r.data.History {
		if !p.Date.After(start) || p.Date.After(end) {
			continue
		}
		if allowed[p.SKUID+"|"+p.Location] {
			points = append(points, p)
		}
	}
	return points, nil
}

func (r *Repository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}
	dates := make([]time.Time, 0, limit)
	for i := len(r.data.Dates) - 1; i >= 0 && len(dates) < limit; i-- {
		dates = append(dates, r.data.Dates[i])
	}
	return dates, nil
}

func (r *Repository) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	locations := map[string]struct{}{}
	cats := map[string]struct{}{}
	for _, tmpl := range r.data.templates {
		locations[tmpl.Location] = struct{}{}
		cats[tmpl.Category] = struct{}{}
	}

	return domain.FilterOptions{
		Locations:  sortedKeys(locations),
		Categories: sortedKeys(cats),
		Statuses:   domain.AllStockStatuses,
		ABCClasses: domain.AllABCClasses,
	}, nil
}

func (r *Repository) LogExport(ctx context.Context, rec *domain.ExportRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exports = append(r.exports, *rec)
	return nil
}

func (r *Repository) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ExportRecord, 0, limit)
	for i := len(r.exports) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.exports[i])
	}
	return out, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
