package demo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	SnapshotFile = "inventory_snapshot.csv"
	HistoryFile  = "inventory_history.csv"
)

var snapshotHeader = []string{
	"sku_id", "sku_name", "category", "location", "abc_class",
	"quantity_on_hand", "quantity_reserved", "quantity_committed",
	"reorder_point", "safety_stock", "lead_time_days", "max_stock",
	"avg_daily_sales", "unit_cost_usd", "supplier_name", "supplier_ontime_pct",
	"last_updated",
}

// WriteFiles writes the latest snapshot and the full history into dir.
func (ds *Dataset) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	if err := writeFile(filepath.Join(dir, SnapshotFile), func(w io.Writer) error {
		return WriteSnapshotCSV(w, ds.Snapshot())
	}); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, HistoryFile), func(w io.Writer) error {
		return WriteHistoryCSV(w, ds.History)
	}); err != nil {
		return err
	}

	log.Info().
		Str("dir", dir).
		Int("items", len(ds.templates)).
		Int("history_rows", len(ds.History)).
		Msg("demo data written")
	return nil
}

// WriteDailySnapshots writes the last `days` days as YYYYMMDD_demo.csv files
// that the snapshot pipeline can pick up.
func (ds *Dataset) WriteDailySnapshots(dir string, days int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	if days <= 0 || days > len(ds.Dates) {
		days = len(ds.Dates)
	}

	var paths []string
	for d := len(ds.Dates) - days; d < len(ds.Dates); d++ {
		path := filepath.Join(dir, ds.Dates[d].Format("20060102")+"_demo.csv")
		items := ds.SnapshotAt(d)
		if err := writeFile(path, func(w io.Writer) error {
			return WriteSnapshotCSV(w, items)
		}); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// WriteSnapshotCSV writes items using the snapshot column names.
func WriteSnapshotCSV(w io.Writer, items []domain.InventoryItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(snapshotHeader); err != nil {
		return err
	}
	for _, item := range items {
		updated := ""
		if !item.LastUpdated.IsZero() {
			updated = item.LastUpdated.Format("2006-01-02")
		}
		record := []string{
			item.SKUID, item.SKUName, item.Category, item.Location, string(item.ABCClass),
			formatFloat(item.QuantityOnHand), formatFloat(item.QuantityReserved), formatFloat(item.QuantityCommitted),
			formatFloat(item.ReorderPoint), formatFloat(item.SafetyStock), formatFloat(item.LeadTimeDays), formatFloat(item.MaxStock),
			formatFloat(item.AvgDailySales), formatFloat(item.UnitCostUSD), item.SupplierName, formatFloat(item.SupplierOnTimePct),
			updated,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteHistoryCSV writes one row per item per day.
func WriteHistoryCSV(w io.Writer, points []domain.StockHistoryPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "sku_id", "location", "quantity_on_hand"}); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.Write([]string{p.Date.Format("2006-01-02"), p.SKUID, p.Location, formatFloat(p.Quantity)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
