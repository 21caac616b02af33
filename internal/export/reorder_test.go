package export

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"testing"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/xuri/excelize/v2"
)

func sampleList() []domain.EvaluatedItem {
	return []domain.EvaluatedItem{
		{
			InventoryItem: domain.InventoryItem{
				SKUID: "MED-001", SKUName: "Paracetamol 500mg", Category: "medicines", Location: "Rural Health Post",
				QuantityOnHand: 10, ReorderPoint: 80, UnitCostUSD: 2.5, SupplierName: "MedSupply Co",
			},
			ReorderPlan: domain.ReorderPlan{RecommendedOrderQty: 83, PriorityScore: 9, EstimatedOrderValueUSD: 207.5},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	if got := FileName(FormatXLSX, now); got != "reorder_list_20250309_140507.xlsx" {
		t.Fatalf("FileName() = %s", got)
	}
}

func TestWriteCSV(t *testing.T) {
	data, err := Render(FormatCSV, sampleList())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !reflect.DeepEqual(records[0], Headers) {
		t.Errorf("header = %v", records[0])
	}
	want := []string{"MED-001", "Paracetamol 500mg", "medicines", "Rural Health Post", "10", "80", "83", "9", "2.50", "207.50", "MedSupply Co"}
	if !reflect.DeepEqual(records[1], want) {
		t.Errorf("row = %v\nwant %v", records[1], want)
	}
}

func TestWriteXLSX(t *testing.T) {
	data, err := Render(FormatXLSX, sampleList())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][9] != "Estimated Order Value (USD)" || rows[1][0] != "MED-001" || rows[1][10] != "MedSupply Co" {
		t.Errorf("unexpected content: %v", rows)
	}
}
