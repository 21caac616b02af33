package postgres

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/lib/pq"
)

// buildInventoryFilterClause constructs the identity filters of an inventory query.
// Matching is case-insensitive to agree with domain.InventoryFilter.MatchesItem.
func buildInventoryFilterClause(filter domain.InventoryFilter, alias string, startIndex int) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	idx := startIndex
	a := normalizeAlias(alias)

	addList := func(col string, values []string) {
		if len(values) == 0 {
			return
		}
		lowered := make([]string, 0, len(values))
		for _, v := range values {
			lowered = append(lowered, strings.ToLower(strings.TrimSpace(v)))
		}
		clauses = append(clauses, fmt.Sprintf("LOWER(%s%s) = ANY($%d::text[])", a, col, idx))
		args = append(args, pq.Array(lowered))
		idx++
	}

	addList("location", filter.Locations)
	addList("category", filter.Categories)
	addList("sku_id", filter.SKUIDs)

	if len(filter.ABCClasses) > 0 {
		classes := make([]string, 0, len(filter.ABCClasses))
		for _, c := range filter.ABCClasses {
			classes = append(classes, string(c))
		}
		clauses = append(clauses, fmt.Sprintf("%sabc_class = ANY($%d::text[])", a, idx))
		args = append(args, pq.Array(classes))
		idx++
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return " AND " + strings.Join(clauses, " AND "), args
}

func normalizeAlias(alias string) string {
	if alias == "" {
		return ""
	}
	if !strings.HasSuffix(alias, ".") {
		return alias + "."
	}
	return alias
}
