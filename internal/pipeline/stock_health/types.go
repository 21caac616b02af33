package stock_health

import (
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
)

// RawInventoryRow is a snapshot row as read from a source, before defaults are applied.
// Optional numeric columns are nil when the source did not provide them.
type RawInventoryRow struct {
	SKUID          string
	SKUName        string
	Category       string
	Location       string
	ABCClass       string
	SupplierName   string
	QuantityOnHand float64
	LastUpdated    time.Time

	QuantityReserved  *float64
	QuantityCommitted *float64
	ReorderPoint      *float64
	SafetyStock       *float64
	LeadTimeDays      *float64
	MaxStock          *float64
	AvgDailySales     *float64
	UnitCostUSD       *float64
	SupplierOnTimePct *float64
}

// OptionalFieldDefaults documents the substitutions made for missing optional columns.
type OptionalFieldDefaults struct {
	LeadTimeDays  float64
	AvgDailySales float64
	ABCClass      domain.ABCClass
}

// DefaultOptionalFields are applied once at ingestion.
var DefaultOptionalFields = OptionalFieldDefaults{
	LeadTimeDays:  7,
	AvgDailySales: 1,
	ABCClass:      domain.ClassC,
}

// Config holds configuration for the stock health pipeline
type Config struct {
	InputDateFormat string // Date format in input filenames
	OutputDir       string // Directory for output CSVs

	// IntermediateDir is the root directory for per-file intermediate outputs.
	// When PersistMetricsLayer is true the evaluated rows are written to
	//   <IntermediateDir>/<date>/with_metrics/<file>.csv
	IntermediateDir     string
	PersistMetricsLayer bool

	Defaults OptionalFieldDefaults
	Planner  PlannerOptions
	Forecast ForecastOptions

	// Seed fixes the forecaster seed per file; 0 seeds from the clock.
	Seed int64
}

// ProcessingSummary holds summary statistics for a processed file
type ProcessingSummary struct {
	FileName       string
	SnapshotDate   time.Time
	TotalRows      int
	SkippedRows    int
	Status         domain.StatusCounts
	ProcessingTime time.Duration
}
