package analytics

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

type columnKind int

const (
	kindText columnKind = iota
	kindFloat
	kindInt
	kindBool
	kindDate
	kindTimestamp
)

type column struct {
	name string
	kind columnKind
}

// snapshotColumns is the column set of stock_health_snapshots, in table order.
var snapshotColumns = []column{
	{"snapshot_date", kindDate},
	{"sku_id", kindText},
	{"sku_name", kindText},
	{"category", kindText},
	{"location", kindText},
	{"abc_class", kindText},
	{"quantity_on_hand", kindFloat},
	{"quantity_reserved", kindFloat},
	{"quantity_committed", kindFloat},
	{"available_stock", kindFloat},
	{"reorder_point", kindFloat},
	{"safety_stock", kindFloat},
	{"lead_time_days", kindFloat},
	{"max_stock", kindFloat},
	{"avg_daily_sales", kindFloat},
	{"unit_cost_usd", kindFloat},
	{"total_inventory_value_usd", kindFloat},
	{"supplier_name", kindText},
	{"supplier_ontime_pct", kindFloat},
	{"last_updated", kindTimestamp},
	{"days_until_stockout", kindFloat},
	{"stock_status", kindText},
	{"risk_score", kindFloat},
	{"recommended_order_qty", kindFloat},
	{"economic_order_qty", kindFloat},
	{"priority_score", kindInt},
	{"urgent", kindBool},
	{"stockout_risk", kindText},
	{"predicted_days_to_stockout", kindFloat},
}

// keyColumns identify one snapshot row.
var keyColumns = []string{"snapshot_date", "sku_id", "location"}

func columnNames() []string {
	names := make([]string, len(snapshotColumns))
	for i, c := range snapshotColumns {
		names[i] = c.name
	}
	return names
}

// ReadSnapshotRows converts an aggregated stock health CSV into typed rows ready
// for COPY. Columns are matched by header name; missing columns load as NULL.
func ReadSnapshotRows(r io.Reader) ([][]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, key := range keyColumns {
		if _, ok := index[key]; !ok {
			return nil, fmt.Errorf("missing key column %s", key)
		}
	}

	var rows [][]any
	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("error reading record: %w", err)
		}
		line++

		row := make([]any, len(snapshotColumns))
		for i, col := range snapshotColumns {
			idx, ok := index[col.name]
			if !ok || idx >= len(record) {
				continue
			}
			v, err := convert(col.kind, strings.TrimSpace(record[idx]))
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, col.name, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func convert(kind columnKind, raw string) (any, error) {
	if raw == "" {
		if kind == kindText {
			return "", nil
		}
		return nil, nil
	}

	switch kind {
	case kindFloat:
		return strconv.ParseFloat(raw, 64)
	case kindInt:
		v, err := strconv.ParseInt(raw, 10, 32)
		return int32(v), err
	case kindBool:
		return strconv.ParseBool(raw)
	case kindDate:
		return time.Parse("2006-01-02", raw)
	case kindTimestamp:
		return time.Parse(time.RFC3339, raw)
	default:
		return raw, nil
	}
}
