package stock_health

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/pipeline"
)

// StockHealthPipeline implements the generic pipeline.Pipeline interface for inventory snapshot files.
type StockHealthPipeline struct {
	config Config
}

// NewStockHealthPipeline creates a new stock health pipeline instance.
func NewStockHealthPipeline(cfg Config) *StockHealthPipeline {
	if cfg.IntermediateDir == "" {
		cfg.IntermediateDir = filepath.Join("data", "intermediate", "stock_health")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join("data", "seeds", "stock_health")
	}
	if cfg.InputDateFormat == "" {
		cfg.InputDateFormat = "20060102"
	}
	if cfg.Defaults == (OptionalFieldDefaults{}) {
		cfg.Defaults = DefaultOptionalFields
	}
	return &StockHealthPipeline{config: cfg}
}

// Name returns the unique identifier of this pipeline.
func (p *StockHealthPipeline) Name() string {
	return "stock_health"
}

// GetOutputTable returns the target database table for analytics ingestion.
func (p *StockHealthPipeline) GetOutputTable() string {
	return "stock_health_snapshots"
}

// GetSnapshotDate extracts the snapshot date from the filename using the configured format.
func (p *StockHealthPipeline) GetSnapshotDate(filename string) (time.Time, error) {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	layout := p.config.InputDateFormat
	if len(base) < len(layout) {
		return time.Time{}, fmt.Errorf("filename %s does not contain date with layout %s", filename, layout)
	}

	return time.Parse(layout, base[:len(layout)])
}

// Validate performs basic validation on the input file.
func (p *StockHealthPipeline) Validate(inputFile string) error {
	info, err := os.Stat(inputFile)
	if err != nil {
		return fmt.Errorf("cannot stat input file %s: %w", inputFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected file", inputFile)
	}
	ext := strings.ToLower(filepath.Ext(inputFile))
	if ext != ".csv" {
		return fmt.Errorf("unsupported file extension %s for %s (only CSV supported)", ext, inputFile)
	}
	return nil
}

// Transform processes a single input file and returns transformed rows in a generic format.
func (p *StockHealthPipeline) Transform(ctx context.Context, inputFile string) ([]pipeline.TransformedRow, error) {
	// 1) Parse snapshot date from filename
	snapshotDate, err := p.GetSnapshotDate(inputFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot date: %w", err)
	}

	// 2) Read raw rows
	file, err := os.Open(inputFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	raws, err := ReadSnapshotCSV(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", inputFile, err)
	}

	// 3) Resolve optional fields once
	items := make([]domain.InventoryItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, p.config.Defaults.Resolve(raw))
	}

	// 4) Evaluate with a forecaster owned by this file
	calc := NewInventoryCalculator(p.config.Planner, NewSeededForecaster(p.config.Forecast, p.config.Seed))
	evaluated, err := calc.CalculateAll(ctx, items)
	if err != nil {
		return nil, err
	}

	if p.config.PersistMetricsLayer {
		if err := p.writeMetricsIntermediate(snapshotDate, inputFile, evaluated); err != nil {
			return nil, fmt.Errorf("failed to write metrics intermediate: %w", err)
		}
	}

	// 5) Map to generic TransformedRow format expected by StreamingAggregator/analytics
	result := make([]pipeline.TransformedRow, 0, len(evaluated))
	for _, item := range evaluated {
		result = append(result, pipeline.TransformedRow{Data: ToRowData(snapshotDate, item)})
	}

	return result, nil
}

// ToRowData flattens an evaluated item into the column set of stock_health_snapshots.
func ToRowData(date time.Time, item domain.EvaluatedItem) map[string]interface{} {
	data := map[string]interface{}{
		"snapshot_date":              date.Format("2006-01-02"),
		"sku_id":                     item.SKUID,
		"sku_name":                   item.SKUName,
		"category":                   item.Category,
		"location":                   item.Location,
		"abc_class":                  string(item.ABCClass),
		"quantity_on_hand":           item.QuantityOnHand,
		"quantity_reserved":          item.QuantityReserved,
		"quantity_committed":         item.QuantityCommitted,
		"available_stock":            item.Available,
		"reorder_point":              item.ReorderPoint,
		"safety_stock":               item.SafetyStock,
		"lead_time_days":             item.LeadTimeDays,
		"max_stock":                  item.MaxStock,
		"avg_daily_sales":            item.AvgDailySales,
		"unit_cost_usd":              item.UnitCostUSD,
		"total_inventory_value_usd":  item.ValueUSD,
		"supplier_name":              item.SupplierName,
		"supplier_ontime_pct":        item.SupplierOnTimePct,
		"last_updated":               "",
		"days_until_stockout":        roundFloat(item.DaysUntilStockout, 2),
		"stock_status":               string(item.StockStatus),
		"risk_score":                 item.RiskScore,
		"recommended_order_qty":      item.RecommendedOrderQty,
		"economic_order_qty":         item.EconomicOrderQty,
		"priority_score":             item.PriorityScore,
		"urgent":                     item.Urgent,
		"stockout_risk":              "",
		"predicted_days_to_stockout": 0.0,
	}
	if !item.LastUpdated.IsZero() {
		data["last_updated"] = item.LastUpdated.Format(time.RFC3339)
	}
	if item.Forecast != nil {
		data["stockout_risk"] = string(item.Forecast.StockoutRisk)
		data["predicted_days_to_stockout"] = item.Forecast.PredictedDaysToStockout
	}
	return data
}

// ReadSnapshotCSV parses a snapshot CSV. Headers are matched case- and
// punctuation-insensitively and a few common aliases are accepted. Rows without a
// SKU id are skipped.
func ReadSnapshotCSV(r io.Reader) ([]RawInventoryRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []RawInventoryRow{}, nil
		}
		return nil, err
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(strings.TrimPrefix(h, "\ufeff"))]; ok {
				return i
			}
		}
		return -1
	}

	idxSKU := colIndex("sku_id", "sku")
	idxName := colIndex("sku_name", "item_name", "product name", "name")
	idxCategory := colIndex("category")
	idxLocation := colIndex("location", "warehouse_location", "store")
	idxABC := colIndex("abc_class", "abc")
	idxOnHand := colIndex("quantity_on_hand", "current_stock", "stock", "qty")
	idxReserved := colIndex("quantity_reserved", "reserved")
	idxCommitted := colIndex("quantity_committed", "committed")
	idxReorder := colIndex("reorder_point")
	idxSafety := colIndex("safety_stock")
	idxLead := colIndex("lead_time_days", "lead_time")
	idxMax := colIndex("max_stock")
	idxSales := colIndex("avg_daily_sales", "consumption", "daily_sales")
	idxCost := colIndex("unit_cost_usd", "unit_cost")
	idxSupplier := colIndex("supplier_name", "supplier")
	idxOnTime := colIndex("supplier_ontime_pct", "supplier_on_time_pct")
	idxUpdated := colIndex("last_updated", "date")

	if idxSKU < 0 && idxName < 0 {
		return nil, fmt.Errorf("snapshot header has neither sku_id nor sku_name: %v", header)
	}

	rows := make([]RawInventoryRow, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		optional := func(idx int) *float64 {
			if f, ok := parseNumber(get(idx)); ok {
				return floatPtr(f)
			}
			return nil
		}

		sku := get(idxSKU)
		if sku == "" {
			sku = get(idxName)
		}
		if sku == "" {
			continue
		}

		onHand, _ := parseNumber(get(idxOnHand))

		rows = append(rows, RawInventoryRow{
			SKUID:             sku,
			SKUName:           get(idxName),
			Category:          get(idxCategory),
			Location:          get(idxLocation),
			ABCClass:          get(idxABC),
			SupplierName:      get(idxSupplier),
			QuantityOnHand:    onHand,
			LastUpdated:       parseTimestamp(get(idxUpdated)),
			QuantityReserved:  optional(idxReserved),
			QuantityCommitted: optional(idxCommitted),
			ReorderPoint:      optional(idxReorder),
			SafetyStock:       optional(idxSafety),
			LeadTimeDays:      optional(idxLead),
			MaxStock:          optional(idxMax),
			AvgDailySales:     optional(idxSales),
			UnitCostUSD:       optional(idxCost),
			SupplierOnTimePct: optional(idxOnTime),
		})
	}

	return rows, nil
}

func parseTimestamp(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// writeMetricsIntermediate persists the evaluated rows next to the input for debugging.
func (p *StockHealthPipeline) writeMetricsIntermediate(date time.Time, inputFile string, items []domain.EvaluatedItem) error {
	dir := filepath.Join(p.config.IntermediateDir, date.Format("20060102"), "with_metrics")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	out, err := os.Create(filepath.Join(dir, filepath.Base(inputFile)))
	if err != nil {
		return err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	header := []string{
		"sku_id", "sku_name", "location", "quantity_on_hand", "days_until_stockout",
		"stock_status", "risk_score", "recommended_order_qty", "priority_score",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, item := range items {
		record := []string{
			item.SKUID,
			item.SKUName,
			item.Location,
			fmt.Sprintf("%g", item.QuantityOnHand),
			fmt.Sprintf("%.2f", item.DaysUntilStockout),
			string(item.StockStatus),
			fmt.Sprintf("%g", item.RiskScore),
			fmt.Sprintf("%g", item.RecommendedOrderQty),
			fmt.Sprintf("%d", item.PriorityScore),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
