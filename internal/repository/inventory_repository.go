// stockwatch/internal/repository/inventory_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// InventoryRepository is the read side of the inventory snapshot store.
// Status filters are not applied here because status is derived after evaluation.
type InventoryRepository interface {
	// GetSnapshot returns the raw items of filter.SnapshotDate, or of the latest
	// snapshot when no date is given, together with the resolved date.
	GetSnapshot(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, string, error)
	// GetStockHistory returns on-hand quantities for the days up to and including the snapshot date.
	GetStockHistory(ctx context.Context, filter domain.InventoryFilter, days int) ([]domain.StockHistoryPoint, error)
	GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error)
	GetFilterOptions(ctx context.Context) (domain.FilterOptions, error)
}

// ExportLogRepository records reorder list exports.
type ExportLogRepository interface {
	LogExport(ctx context.Context, rec *domain.ExportRecord) error
	ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error)
}

// ReadOnlyQuerier runs generated analytics SQL without write access.
type ReadOnlyQuerier interface {
	// QueryReadOnly returns at most maxRows rows of query.
	QueryReadOnly(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error)
}
