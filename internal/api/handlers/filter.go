package handlers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/gin-gonic/gin"
)

// parseFilter reads the inventory filter from the query string. List params are
// accepted both repeated and comma-separated:
//
//	?location=A&location=B
//	?location=A,B
func parseFilter(c *gin.Context) (domain.InventoryFilter, error) {
	filter := domain.InventoryFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	filter.Locations = queryList(c, "location", "locations")
	filter.Categories = queryList(c, "category", "categories")
	filter.SKUIDs = queryList(c, "sku_id", "sku_ids")

	for _, raw := range queryList(c, "status", "stock_status") {
		status, ok := domain.ParseStockStatus(raw)
		if !ok {
			return filter, fmt.Errorf("unknown stock status %q", raw)
		}
		filter.Statuses = append(filter.Statuses, status)
	}

	for _, raw := range queryList(c, "abc_class") {
		switch class := domain.ABCClass(strings.ToUpper(raw)); class {
		case domain.ClassA, domain.ClassB, domain.ClassC:
			filter.ABCClasses = append(filter.ABCClasses, class)
		default:
			return filter, fmt.Errorf("unknown abc class %q", raw)
		}
	}

	if date := strings.TrimSpace(c.Query("snapshot_date")); date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			return filter, fmt.Errorf("snapshot_date %q is not YYYY-MM-DD", date)
		}
		filter.SnapshotDate = date
	}

	return filter, nil
}

// queryList flattens repeated and comma-separated values of the first param present.
func queryList(c *gin.Context, params ...string) []string {
	var raw []string
	for _, p := range params {
		if raw = c.QueryArray(p); len(raw) > 0 {
			break
		}
	}

	seen := make(map[string]struct{})
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			key := strings.ToLower(part)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.DefaultQuery(name, strconv.Itoa(def)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// queryHorizon reads ?horizon=. Values above max are rejected rather than clamped.
func queryHorizon(c *gin.Context, max int) (int, error) {
	raw := strings.TrimSpace(c.Query("horizon"))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("horizon %q must be a positive number of days", raw)
	}
	if v > max {
		return 0, fmt.Errorf("horizon %d exceeds the limit of %d days", v, max)
	}
	return v, nil
}
