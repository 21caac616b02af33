package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const inventoryColumns = `
	sku_id, sku_name, category, location, abc_class,
	quantity_on_hand, quantity_reserved, quantity_committed,
	reorder_point, safety_stock, lead_time_days, max_stock,
	avg_daily_sales, unit_cost_usd, supplier_name, supplier_ontime_pct,
	COALESCE(last_updated, snapshot_date::timestamptz) AS last_updated`

type inventoryRepository struct {
	db *sqlx.DB
}

// NewInventoryRepository reads raw items back from stock_health_snapshots.
func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) resolveSnapshotDate(ctx context.Context, requested string) (string, error) {
	if requested != "" {
		if _, err := time.Parse("2006-01-02", requested); err != nil {
			return "", fmt.Errorf("invalid snapshot date %q: %w", requested, err)
		}
		return requested, nil
	}

	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, `SELECT MAX(snapshot_date) FROM stock_health_snapshots`); err != nil {
		return "", fmt.Errorf("error resolving latest snapshot date: %w", err)
	}
	if !latest.Valid {
		return "", nil
	}
	return latest.Time.Format("2006-01-02"), nil
}

func (r *inventoryRepository) GetSnapshot(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, string, error) {
	date, err := r.resolveSnapshotDate(ctx, filter.SnapshotDate)
	if err != nil {
		return nil, "", err
	}
	if date == "" {
		log.Debug().Msg("inventory: no snapshots loaded yet")
		return []domain.InventoryItem{}, "", nil
	}

	query := `SELECT ` + inventoryColumns + `
		FROM stock_health_snapshots
		WHERE snapshot_date = $1::date`
	args := []interface{}{date}

	clause, filterArgs := buildInventoryFilterClause(filter, "", 2)
	query += clause + " ORDER BY location, sku_id"
	args = append(args, filterArgs...)

	items := []domain.InventoryItem{}
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, "", fmt.Errorf("error getting inventory snapshot: %w", err)
	}

	return items, date, nil
}

func (r *inventoryRepository) GetStockHistory(ctx context.Context, filter domain.InventoryFilter, days int) ([]domain.StockHistoryPoint, error) {
	if days <= 0 {
		days = 30
	}

	date, err := r.resolveSnapshotDate(ctx, filter.SnapshotDate)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return []domain.StockHistoryPoint{}, nil
	}

	query := `
		SELECT sku_id, category, location, snapshot_date, quantity_on_hand
		FROM stock_health_snapshots
		WHERE snapshot_date <= $1::date
		  AND snapshot_date > $1::date - $2::int`
	args := []interface{}{date, days}

	clause, filterArgs := buildInventoryFilterClause(filter, "", 3)
	query += clause + " ORDER BY sku_id, location, snapshot_date"
	args = append(args, filterArgs...)

	points := []domain.StockHistoryPoint{}
	if err := r.db.SelectContext(ctx, &points, query, args...); err != nil {
		return nil, fmt.Errorf("error getting stock history: %w", err)
	}

	return points, nil
}

func (r *inventoryRepository) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = 30
	}

	query := `
		SELECT DISTINCT snapshot_date
		FROM stock_health_snapshots
		ORDER BY snapshot_date DESC
		LIMIT $1
	`

	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, limit); err != nil {
		return nil, fmt.Errorf("error getting available dates: %w", err)
	}

	return dates, nil
}

func (r *inventoryRepository) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	opts := domain.FilterOptions{
		Statuses:   domain.AllStockStatuses,
		ABCClasses: domain.AllABCClasses,
	}

	date, err := r.resolveSnapshotDate(ctx, "")
	if err != nil {
		return opts, err
	}

	opts.Locations = []string{}
	opts.Categories = []string{}
	if date == "" {
		return opts, nil
	}

	if err := r.db.SelectContext(ctx, &opts.Locations,
		`SELECT DISTINCT location FROM stock_health_snapshots WHERE snapshot_date = $1::date ORDER BY location`, date); err != nil {
		return opts, fmt.Errorf("error getting locations: %w", err)
	}
	if err := r.db.SelectContext(ctx, &opts.Categories,
		`SELECT DISTINCT category FROM stock_health_snapshots WHERE snapshot_date = $1::date ORDER BY category`, date); err != nil {
		return opts, fmt.Errorf("error getting categories: %w", err)
	}

	return opts, nil
}

type exportLogRepository struct {
	db *DB
}

// NewExportLogRepository stores export records in export_log.
func NewExportLogRepository(db *DB) repository.ExportLogRepository {
	return &exportLogRepository{db: db}
}

func (r *exportLogRepository) LogExport(ctx context.Context, rec *domain.ExportRecord) error {
	query := `
		INSERT INTO export_log (id, format, file_name, object_key, items, total_value_usd, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			rec.ID, rec.Format, rec.FileName, rec.ObjectKey, rec.Items, rec.TotalValue, rec.CreatedAt)
		if err != nil {
			return fmt.Errorf("error logging export: %w", err)
		}
		return nil
	})
}

func (r *exportLogRepository) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	records := []domain.ExportRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, format, file_name, object_key, items, total_value_usd, created_at
		FROM export_log
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("error listing exports: %w", err)
	}

	return records, nil
}
