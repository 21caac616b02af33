package stock_health

import (
	"math"
	"strconv"
	"strings"
)

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// parseNumber parses a numeric cell, accepting thousands separators and a
// trailing percent sign. Empty or unparsable cells return ok=false.
func parseNumber(raw string) (float64, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return 0, false
	}
	v = strings.TrimSuffix(v, "%")
	v = strings.ReplaceAll(v, ",", "")
	v = strings.TrimPrefix(v, "$")
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalizeColumnName lowercases a header and strips spaces and punctuation so
// "Quantity On Hand", "quantity_on_hand" and "QUANTITY-ON-HAND" compare equal.
func normalizeColumnName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "", "(", "", ")", "")
	return replacer.Replace(s)
}
