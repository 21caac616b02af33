// Package export renders reorder lists as CSV or XLSX documents.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"

	SheetName = "Reorder List"
)

// Headers are the column titles of an exported reorder list.
var Headers = []string{
	"SKU ID",
	"Item Name",
	"Category",
	"Location",
	"Current Stock",
	"Reorder Point",
	"Recommended Qty",
	"Priority Score",
	"Unit Cost (USD)",
	"Estimated Order Value (USD)",
	"Supplier",
}

// ParseFormat accepts csv, xlsx and excel. Empty input means csv.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", v)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// FileName returns reorder_list_YYYYMMDD_HHMMSS.<ext>.
func FileName(f Format, now time.Time) string {
	return fmt.Sprintf("reorder_list_%s.%s", now.Format("20060102_150405"), f)
}

// Rows flattens a reorder list into the exported columns.
func Rows(items []domain.EvaluatedItem) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		rows = append(rows, []interface{}{
			item.SKUID,
			item.SKUName,
			item.Category,
			item.Location,
			item.QuantityOnHand,
			item.ReorderPoint,
			item.RecommendedOrderQty,
			item.PriorityScore,
			decimal.NewFromFloat(item.UnitCostUSD).StringFixed(2),
			decimal.NewFromFloat(item.EstimatedOrderValueUSD).StringFixed(2),
			item.SupplierName,
		})
	}
	return rows
}

// Write renders items in format f.
func Write(w io.Writer, f Format, items []domain.EvaluatedItem) error {
	switch f {
	case FormatXLSX:
		return WriteXLSX(w, items)
	case FormatCSV:
		return WriteCSV(w, items)
	}
	return fmt.Errorf("unsupported export format %q", f)
}

// Render is Write into a buffer.
func Render(f Format, items []domain.EvaluatedItem) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, f, items); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteCSV(w io.Writer, items []domain.EvaluatedItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, row := range Rows(items) {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = cellString(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, items []domain.EvaluatedItem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(Headers))
	if err := f.SetCellStyle(SheetName, "A1", lastCol+"1", bold); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "A", lastCol, 18); err != nil {
		return err
	}

	for i, row := range Rows(items) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		copy(values, row)
		// money columns are written as numbers in the sheet
		values[8] = items[i].UnitCostUSD
		values[9] = items[i].EstimatedOrderValueUSD
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	return f.Write(w)
}

func cellString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}
