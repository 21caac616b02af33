package insights

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// ErrUnsafeQuery is returned for generated SQL that is not a single read-only SELECT.
var ErrUnsafeQuery = errors.New("insights: generated query is not a single SELECT")

var (
	fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	// statements and functions that write, lock, or reach outside the database
	forbiddenPattern = regexp.MustCompile(`(?i)\b(insert|update|delete|merge|upsert|drop|alter|create|truncate|grant|revoke|copy|call|execute|prepare|vacuum|lock|refresh|reindex|cluster|into|pg_\w+|lo_\w+|dblink\w*)\b`)
)

// CleanSQL strips the markdown fence, a leading "SQL:" label and trailing
// semicolons that models tend to wrap their answer in.
func CleanSQL(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	if len(s) >= 4 && strings.EqualFold(s[:4], "sql:") {
		s = s[4:]
	}
	return strings.TrimRight(strings.TrimSpace(s), "; \n\t")
}

// ValidateSelect cleans raw and accepts it only when it is one SELECT (or WITH
// ... SELECT) statement with no comments and no writing keywords.
func ValidateSelect(raw string) (string, error) {
	query := CleanSQL(raw)
	if query == "" {
		return "", fmt.Errorf("%w: empty query", ErrUnsafeQuery)
	}
	if strings.Contains(query, ";") {
		return "", fmt.Errorf("%w: multiple statements", ErrUnsafeQuery)
	}
	if strings.Contains(query, "--") || strings.Contains(query, "/*") {
		return "", fmt.Errorf("%w: comments are not allowed", ErrUnsafeQuery)
	}

	first := strings.ToLower(strings.Fields(query)[0])
	if first != "select" && first != "with" {
		return "", fmt.Errorf("%w: starts with %s", ErrUnsafeQuery, strings.ToUpper(first))
	}
	if kw := forbiddenPattern.FindString(query); kw != "" {
		return "", fmt.Errorf("%w: uses %s", ErrUnsafeQuery, strings.ToUpper(kw))
	}
	return query, nil
}

// FormatQueryResult renders up to maxRows rows as a pipe separated table.
func FormatQueryResult(r *domain.QueryResult, maxRows int) string {
	if r == nil || len(r.Rows) == 0 {
		return "(no rows)"
	}

	var b strings.Builder
	b.WriteString(strings.Join(r.Columns, " | "))
	b.WriteString("\n")
	for i, row := range r.Rows {
		if i == maxRows {
			fmt.Fprintf(&b, "... %d more rows\n", len(r.Rows)-maxRows)
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			if v == nil {
				cells[j] = "NULL"
				continue
			}
			cells[j] = fmt.Sprint(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BuildSQLGenerationPrompt asks the model to translate question into PostgreSQL.
func BuildSQLGenerationPrompt(question string) string {
	return fmt.Sprintf(sqlGenerationTemplate, DatabaseSchema, strings.TrimSpace(question))
}

// BuildSQLAnswerPrompt asks the model to explain the rows query returned.
func BuildSQLAnswerPrompt(question, query string, result *domain.QueryResult, maxRows int) string {
	rows := 0
	if result != nil {
		rows = len(result.Rows)
	}
	return fmt.Sprintf(sqlAnswerTemplate, strings.TrimSpace(question), query, rows, FormatQueryResult(result, maxRows))
}

// BuildSQLErrorPrompt asks the model to explain a failed query in plain words.
func BuildSQLErrorPrompt(question, query, errMessage string) string {
	return fmt.Sprintf(sqlErrorTemplate, strings.TrimSpace(question), query, errMessage)
}

// DatabaseSchema describes the tables generated SQL may read.
const DatabaseSchema = `TABLE stock_health_snapshots (one row per SKU, location and snapshot day)
Columns:
- snapshot_date (DATE) - day of the snapshot; the latest day is the current state
- sku_id (TEXT) - SKU identifier, e.g. MED-001
- sku_name (TEXT) - item name
- category (TEXT) - medicines, food, supplies
- location (TEXT) - facility or warehouse name
- abc_class (TEXT) - ABC class: A, B or C
- quantity_on_hand (DOUBLE PRECISION) - units in stock
- quantity_reserved, quantity_committed (DOUBLE PRECISION) - units held back
- available_stock (DOUBLE PRECISION) - on hand minus reserved minus committed
- reorder_point, safety_stock, max_stock (DOUBLE PRECISION) - stock policy levels
- lead_time_days (DOUBLE PRECISION) - supplier lead time
- avg_daily_sales (DOUBLE PRECISION) - average daily consumption
- unit_cost_usd, total_inventory_value_usd (DOUBLE PRECISION) - cost and stock value
- supplier_name (TEXT), supplier_ontime_pct (DOUBLE PRECISION)
- days_until_stockout (DOUBLE PRECISION) - 999 when the item has no consumption
- stock_status (TEXT) - OUT_OF_STOCK, CRITICAL, LOW, HEALTHY
- risk_score (DOUBLE PRECISION) - 0-100, higher is more urgent
- recommended_order_qty, economic_order_qty (DOUBLE PRECISION)
- priority_score (INTEGER) - 1-10, 10 is most urgent
- urgent (BOOLEAN) - priority 8 or above
- stockout_risk (TEXT) - forecast bucket: HIGH, MODERATE, LOW
- predicted_days_to_stockout (DOUBLE PRECISION) - simulated days of cover
- last_updated (TIMESTAMPTZ)

QUERY GUIDELINES:
- Current state means snapshot_date = (SELECT MAX(snapshot_date) FROM stock_health_snapshots)
- Always include LIMIT (max 1000 rows) unless the query aggregates to a few rows
- Round money with ROUND(value::numeric, 2)
- Trends over time group by snapshot_date
- Only SELECT statements are allowed`

const sqlGenerationTemplate = `You are a SQL expert writing PostgreSQL queries for an inventory health system.

TASK: Convert the user's question into one valid PostgreSQL SELECT query.

DATABASE SCHEMA:
%s

USER QUESTION: %s

INSTRUCTIONS:
1. Work out which columns answer the question
2. Filter to the latest snapshot unless the question asks about history
3. Use WHERE, GROUP BY and ORDER BY as needed
4. Include a LIMIT clause (max 1000 rows) unless aggregating
5. If the question is ambiguous, make a reasonable assumption
6. Return ONLY the SQL query, with no explanation and no markdown

EXAMPLES:

Question: "Show me all critical items"
SQL: SELECT sku_name, location, category, quantity_on_hand, risk_score
FROM stock_health_snapshots
WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM stock_health_snapshots)
  AND stock_status = 'CRITICAL'
ORDER BY risk_score DESC
LIMIT 100

Question: "What's the total value of inventory by location?"
SQL: SELECT location, ROUND(SUM(total_inventory_value_usd)::numeric, 2) AS total_value
FROM stock_health_snapshots
WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM stock_health_snapshots)
GROUP BY location
ORDER BY total_value DESC

Question: "What items need to be reordered urgently?"
SQL: SELECT sku_name, location, recommended_order_qty, priority_score,
  ROUND((recommended_order_qty * unit_cost_usd)::numeric, 2) AS order_value
FROM stock_health_snapshots
WHERE snapshot_date = (SELECT MAX(snapshot_date) FROM stock_health_snapshots)
  AND urgent
ORDER BY priority_score DESC
LIMIT 50

SQL:`

const sqlAnswerTemplate = `You are an inventory management expert helping a user understand their inventory data.

TASK: Turn the query results into a clear, concise and actionable answer.

USER'S QUESTION:
%s

SQL QUERY EXECUTED:
%s

QUERY RESULTS (%d rows):
%s

INSTRUCTIONS:
1. Answer the question directly from the results
2. Highlight key numbers, and call out stockouts and critical items first
3. If the query returned no rows, explain what that means
4. Format currency with $ and thousands separators, percentages with 1 decimal
5. Suggest a next step when one is obvious
6. Keep it to 3-8 sentences, using bullet points where they help

RESPONSE:`

const sqlErrorTemplate = `You are an inventory management assistant helping a user whose question could not be answered.

USER'S QUESTION:
%s

SQL QUERY ATTEMPTED:
%s

ERROR MESSAGE:
%s

TASK: Explain briefly and in plain words what went wrong, without showing technical SQL errors, and suggest 2-3 questions the user could ask instead. Keep it to 2-4 sentences.

RESPONSE:`
