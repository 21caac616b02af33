package postgres

import (
	"strings"
	"testing"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

func TestBuildInventoryFilterClause(t *testing.T) {
	tests := []struct {
		name      string
		filter    domain.InventoryFilter
		alias     string
		start     int
		wantParts []string
		wantArgs  int
	}{
		{
			name:   "empty filter",
			filter: domain.InventoryFilter{},
		},
		{
			name:      "locations and classes",
			filter:    domain.InventoryFilter{Locations: []string{"North", " south "}, ABCClasses: []domain.ABCClass{domain.ClassA}},
			start:     2,
			wantParts: []string{"LOWER(location) = ANY($2::text[])", "abc_class = ANY($3::text[])"},
			wantArgs:  2,
		},
		{
			name:      "alias is normalised",
			filter:    domain.InventoryFilter{Categories: []string{"food"}, SKUIDs: []string{"MED-1"}},
			alias:     "s",
			start:     1,
			wantParts: []string{"LOWER(s.category) = ANY($1::text[])", "LOWER(s.sku_id) = ANY($2::text[])"},
			wantArgs:  2,
		},
		{
			name:     "status is not pushed down",
			filter:   domain.InventoryFilter{Statuses: []domain.StockStatus{domain.StatusLow}},
			start:    1,
			wantArgs: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := buildInventoryFilterClause(tt.filter, tt.alias, tt.start)
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
			if len(tt.wantParts) == 0 && clause != "" {
				t.Errorf("clause = %q, want empty", clause)
			}
			for _, part := range tt.wantParts {
				if !strings.Contains(clause, part) {
					t.Errorf("clause %q missing %q", clause, part)
				}
			}
		})
	}
}

func TestNormalizeValues(t *testing.T) {
	got := normalizeValues([]interface{}{[]byte("12.50"), int64(3), nil, "North"})
	want := []interface{}{"12.50", int64(3), nil, "North"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %#v, want %#v", i, got[i], want[i])
		}
	}
}
