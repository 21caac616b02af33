// Package insights turns an inventory overview into analyst prompts and
// sends them to a language model.
package insights

import (
	"fmt"
	"strings"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

const (
	promptBuckets     = 5
	promptCritical    = 10
	chatCriticalItems = 5
)

// BuildInsightsPrompt renders the full overview followed by the analyst brief.
func BuildInsightsPrompt(o domain.InventoryOverview) string {
	var b strings.Builder

	b.WriteString("=== INVENTORY OVERVIEW ===\n")
	fmt.Fprintf(&b, "Total Items Tracked: %d\n", o.TotalItems)
	fmt.Fprintf(&b, "Total Locations: %d\n", o.TotalLocations)
	fmt.Fprintf(&b, "Total Categories: %d\n", o.TotalCategories)
	fmt.Fprintf(&b, "Total Inventory Value: $%s\n", money(o.TotalValueUSD, 2))
	fmt.Fprintf(&b, "Health Score: %.1f\n\n", o.HealthScore)

	b.WriteString("=== STOCK HEALTH STATUS ===\n")
	for _, s := range domain.AllStockStatuses {
		count := o.StatusBreakdown.Get(s)
		fmt.Fprintf(&b, "%s: %d items (%.1f%%)\n", s, count, percent(count, o.TotalItems))
	}
	b.WriteString("\n")

	b.WriteString("=== STOCKOUT RISK ANALYSIS ===\n")
	fmt.Fprintf(&b, "Items <= 3 days to stockout: %d\n", o.CriticalTiming.Within3Days)
	fmt.Fprintf(&b, "Items <= 7 days to stockout: %d\n", o.CriticalTiming.Within7Days)
	fmt.Fprintf(&b, "Items <= 14 days to stockout: %d\n", o.CriticalTiming.Within14Days)
	fmt.Fprintf(&b, "Average days until stockout: %.1f days\n\n", o.AvgDaysToStockout)

	b.WriteString("=== ABC CLASSIFICATION ===\n")
	for _, c := range o.ABCAnalysis {
		fmt.Fprintf(&b, "Class %s: %d items, $%s value, %d critical\n", c.Class, c.Count, money(c.TotalValueUSD, 0), c.CriticalCount)
	}
	b.WriteString("\n")

	b.WriteString("=== LOCATION PERFORMANCE ===\n")
	for _, l := range head(o.Locations, promptBuckets) {
		fmt.Fprintf(&b, "%s: %d critical, %d low, %d healthy\n", l.Name, l.Status.OutOfStock+l.Status.Critical, l.Status.Low, l.Status.Healthy)
	}
	b.WriteString("\n")

	b.WriteString("=== CATEGORY ISSUES ===\n")
	for _, c := range head(o.Categories, promptBuckets) {
		fmt.Fprintf(&b, "%s: %d critical items, Avg Risk: %.0f\n", c.Name, c.Status.OutOfStock+c.Status.Critical, c.AvgRiskScore)
	}
	b.WriteString("\n")

	b.WriteString("=== REORDER RECOMMENDATIONS ===\n")
	fmt.Fprintf(&b, "Items requiring reorder: %d\n", o.Reorder.ItemsToReorder)
	fmt.Fprintf(&b, "Urgent items (Priority >= 8): %d\n", o.Reorder.UrgentItems)
	fmt.Fprintf(&b, "Estimated total order value: $%s\n\n", money(o.Reorder.TotalOrderValueUSD, 0))

	b.WriteString("=== TOP CRITICAL ITEMS ===\n")
	for i, item := range topItems(o.TopCriticalItems, promptCritical) {
		fmt.Fprintf(&b, "%d. %s (%s) - %s, Stock: %.0f, Days: %.1f, Risk: %.0f\n",
			i+1, item.Name, item.Location, item.Category, item.Quantity, item.DaysUntilStockout, item.RiskScore)
	}

	return fmt.Sprintf(insightsTemplate, b.String())
}

// BuildChatPrompt renders a compact context for a free-form question.
func BuildChatPrompt(question string, o domain.InventoryOverview) string {
	var b strings.Builder

	b.WriteString("**INVENTORY SUMMARY:**\n")
	fmt.Fprintf(&b, "- Total Items: %d\n", o.TotalItems)
	fmt.Fprintf(&b, "- Out of stock: %d, Critical: %d, Low: %d, Healthy: %d\n\n",
		o.StatusBreakdown.OutOfStock, o.StatusBreakdown.Critical, o.StatusBreakdown.Low, o.StatusBreakdown.Healthy)

	b.WriteString("**LOCATIONS:**\n")
	for _, l := range head(o.Locations, promptBuckets) {
		fmt.Fprintf(&b, "- %s: %d critical items\n", l.Name, l.Status.OutOfStock+l.Status.Critical)
	}
	b.WriteString("\n**CATEGORIES:**\n")
	for _, c := range head(o.Categories, promptBuckets) {
		fmt.Fprintf(&b, "- %s: %d critical items\n", c.Name, c.Status.OutOfStock+c.Status.Critical)
	}
	b.WriteString("\n**TOP 5 CRITICAL ITEMS:**\n")
	for i, item := range topItems(o.TopCriticalItems, chatCriticalItems) {
		fmt.Fprintf(&b, "%d. %s (%s) - Qty: %.0f, Days: %.1f\n", i+1, item.Name, item.Location, item.Quantity, item.DaysUntilStockout)
	}

	return fmt.Sprintf(chatTemplate, b.String(), strings.TrimSpace(question))
}

// FallbackSummary is returned when no language model is configured.
func FallbackSummary(o domain.InventoryOverview) string {
	if o.TotalItems == 0 {
		return "No inventory data is available for the selected filters."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d items across %d locations, health score %.1f. ", o.TotalItems, o.TotalLocations, o.HealthScore)
	fmt.Fprintf(&b, "%d out of stock, %d critical and %d low. ",
		o.StatusBreakdown.OutOfStock, o.StatusBreakdown.Critical, o.StatusBreakdown.Low)
	fmt.Fprintf(&b, "%d items run out within 7 days. ", o.CriticalTiming.Within7Days)
	fmt.Fprintf(&b, "%d items need reordering (%d urgent), estimated order value $%s.",
		o.Reorder.ItemsToReorder, o.Reorder.UrgentItems, money(o.Reorder.TotalOrderValueUSD, 0))
	if len(o.Locations) > 0 && o.Locations[0].Status.Unhealthy() > 0 {
		fmt.Fprintf(&b, " Most affected location: %s.", o.Locations[0].Name)
	}
	return b.String()
}

func head(b []domain.BucketSummary, n int) []domain.BucketSummary {
	if len(b) > n {
		return b[:n]
	}
	return b
}

func topItems(items []domain.CriticalItem, n int) []domain.CriticalItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

// money formats v with thousands separators.
func money(v float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, v)
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	neg := strings.HasPrefix(intPart, "-")
	intPart = strings.TrimPrefix(intPart, "-")

	var out strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	if neg {
		return "-" + out.String() + frac
	}
	return out.String() + frac
}

const insightsTemplate = `You are an expert supply chain analyst reviewing inventory health for a healthcare/NGO distribution system handling essential goods (medicines, medical supplies, food, hygiene products).

**YOUR TASK:** Analyze the inventory data below and provide actionable strategic insights.

**INVENTORY DATA:**
%s
**REQUIRED OUTPUT FORMAT:**

1. **Executive Summary** (2-3 sentences)
- Overall inventory health assessment
- Most urgent concern requiring immediate action

2. **Critical Issues** (3-4 specific problems)
- Identify the most pressing inventory risks
- Include specific numbers, locations, and categories
- Explain the business impact of each issue

3. **Root Cause Analysis**
- Pattern analysis across locations and categories

4. **Immediate Actions** (5-7 prioritized actions)
- Specific items, locations or categories to focus on
- Estimated timeline for each action

5. **Strategic Recommendations** (2-3 longer-term improvements)
- Process improvements and inventory policy adjustments

**GUIDELINES:**
- Be specific with numbers, items, and locations
- Prioritize patient and beneficiary safety
- Format with clear headers and bullet points
- Keep the response under 600 words

Provide your analysis:`

const chatTemplate = `You are an inventory management assistant.

%s
**USER QUESTION:**
%s

**INSTRUCTIONS:**
- Answer the question directly and concisely
- Use specific numbers from the data above
- If the data doesn't contain the answer, say so
- Keep the response under 200 words

Your response:`
