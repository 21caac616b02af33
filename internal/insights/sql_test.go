package insights

import (
	"errors"
	"strings"
	"testing"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestCleanSQL(t *testing.T) {
	tests := map[string]string{
		"SELECT 1;":                                 "SELECT 1",
		"```sql\nSELECT sku_id FROM t\n```":         "SELECT sku_id FROM t",
		"```\nSELECT 1;\n```":                       "SELECT 1",
		"SQL: SELECT location FROM t LIMIT 10 ;":    "SELECT location FROM t LIMIT 10",
		"  \n select * from stock_health_snapshots": "select * from stock_health_snapshots",
	}
	for raw, want := range tests {
		if got := CleanSQL(raw); got != want {
			t.Errorf("CleanSQL(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestValidateSelect(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		ok   bool
	}{
		{"plain select", "SELECT sku_name, last_updated FROM stock_health_snapshots LIMIT 10;", true},
		{"cte", "WITH latest AS (SELECT MAX(snapshot_date) AS d FROM stock_health_snapshots) SELECT location FROM stock_health_snapshots, latest WHERE snapshot_date = latest.d", true},
		{"fenced", "```sql\nSELECT location FROM stock_health_snapshots\n```", true},
		{"empty", "  ", false},
		{"delete", "DELETE FROM stock_health_snapshots", false},
		{"stacked", "SELECT 1; DROP TABLE stock_health_snapshots", false},
		{"writing cte", "WITH gone AS (DELETE FROM stock_health_snapshots RETURNING *) SELECT * FROM gone", false},
		{"select into", "SELECT * INTO backup FROM stock_health_snapshots", false},
		{"comment", "SELECT 1 -- DROP", false},
		{"server function", "SELECT pg_sleep(100)", false},
		{"update", "update stock_health_snapshots set urgent = true", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, err := ValidateSelect(tt.raw)
			if tt.ok {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if strings.HasSuffix(query, ";") || strings.HasPrefix(query, "`") {
					t.Errorf("query not cleaned: %q", query)
				}
				return
			}
			if !errors.Is(err, ErrUnsafeQuery) {
				t.Fatalf("err = %v, want ErrUnsafeQuery", err)
			}
		})
	}
}

func TestFormatQueryResult(t *testing.T) {
	r := &domain.QueryResult{
		Columns: []string{"location", "total"},
		Rows:    [][]interface{}{{"North", 12.5}, {"South", nil}, {"East", 3}},
	}

	got := FormatQueryResult(r, 2)
	want := "location | total\nNorth | 12.5\nSouth | NULL\n... 1 more rows"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}

	if got := FormatQueryResult(&domain.QueryResult{Columns: []string{"a"}}, 5); got != "(no rows)" {
		t.Errorf("empty result = %q", got)
	}
}

func TestSQLPrompts(t *testing.T) {
	gen := BuildSQLGenerationPrompt("  which items are critical?  ")
	for _, want := range []string{"USER QUESTION: which items are critical?", "stock_health_snapshots", "OUT_OF_STOCK, CRITICAL, LOW, HEALTHY"} {
		if !strings.Contains(gen, want) {
			t.Errorf("generation prompt missing %q", want)
		}
	}

	result := &domain.QueryResult{Columns: []string{"sku_name"}, Rows: [][]interface{}{{"Rice"}}}
	answer := BuildSQLAnswerPrompt("which items are critical?", "SELECT sku_name FROM stock_health_snapshots", result, 50)
	for _, want := range []string{"QUERY RESULTS (1 rows)", "sku_name\nRice", "SELECT sku_name FROM stock_health_snapshots"} {
		if !strings.Contains(answer, want) {
			t.Errorf("answer prompt missing %q", want)
		}
	}

	errPrompt := BuildSQLErrorPrompt("which items are critical?", "SELECT nope", "column \"nope\" does not exist")
	if !strings.Contains(errPrompt, "ERROR MESSAGE:\ncolumn \"nope\" does not exist") {
		t.Errorf("error prompt = %s", errPrompt)
	}
}
