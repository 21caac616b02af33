package stock_health

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestConvertXLSXToCSV(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "20250331_north.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"sku_id", "location", "quantity_on_hand"},
		{"MED-001", "North", 12},
		{"FOOD-001", "North", 0},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	if err := f.SaveAs(xlsxPath); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	csvPath := CSVPathFor(xlsxPath)
	if csvPath != filepath.Join(dir, "20250331_north.csv") {
		t.Fatalf("csv path = %s", csvPath)
	}
	if err := ConvertXLSXToCSV(xlsxPath, csvPath); err != nil {
		t.Fatalf("ConvertXLSXToCSV: %v", err)
	}

	in, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()

	raws, err := ReadSnapshotCSV(in)
	if err != nil {
		t.Fatalf("ReadSnapshotCSV: %v", err)
	}
	if len(raws) != 2 || raws[0].SKUID != "MED-001" || raws[0].QuantityOnHand != 12 {
		t.Fatalf("rows = %+v", raws)
	}
}

func TestConvertXLSXToCSVMissingFile(t *testing.T) {
	dir := t.TempDir()
	if err := ConvertXLSXToCSV(filepath.Join(dir, "nope.xlsx"), filepath.Join(dir, "nope.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
