package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andresuchdata/stockwatch/internal/cache"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/export"
	"github.com/andresuchdata/stockwatch/internal/messaging"
	"github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/internal/storage"
)

type fakeRepo struct {
	items   []domain.InventoryItem
	history []domain.StockHistoryPoint
	err     error

	mu    sync.Mutex
	calls int
}

func (r *fakeRepo) GetSnapshot(ctx context.Context, filter domain.InventoryFilter) ([]domain.InventoryItem, string, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.err != nil {
		return nil, "", r.err
	}
	out := []domain.InventoryItem{}
	for _, item := range r.items {
		if filter.MatchesItem(item) {
			out = append(out, item)
		}
	}
	return out, "2025-03-31", nil
}

func (r *fakeRepo) GetStockHistory(ctx context.Context, filter domain.InventoryFilter, days int) ([]domain.StockHistoryPoint, error) {
	return r.history, r.err
}

func (r *fakeRepo) GetAvailableDates(ctx context.Context, limit int) ([]time.Time, error) {
	return []time.Time{time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)}, nil
}

func (r *fakeRepo) GetFilterOptions(ctx context.Context) (domain.FilterOptions, error) {
	return domain.FilterOptions{Locations: []string{"North", "South"}}, nil
}

type memoryCache struct {
	stored map[string]*domain.InventoryOverview
	sets   int
}

func (c *memoryCache) key(f domain.InventoryFilter) string {
	return strings.Join(f.Locations, ",") + "|" + f.SnapshotDate
}

func (c *memoryCache) GetOverview(ctx context.Context, f domain.InventoryFilter) (*domain.InventoryOverview, bool, error) {
	o, ok := c.stored[c.key(f)]
	return o, ok, nil
}

func (c *memoryCache) SetOverview(ctx context.Context, f domain.InventoryFilter, o *domain.InventoryOverview) error {
	if c.stored == nil {
		c.stored = map[string]*domain.InventoryOverview{}
	}
	c.stored[c.key(f)] = o
	c.sets++
	return nil
}

func (c *memoryCache) InvalidateAll(ctx context.Context) error {
	c.stored = nil
	return nil
}

type recordingPublisher struct {
	published []domain.Alert
	err       error
}

func (p *recordingPublisher) PublishAlerts(ctx context.Context, alerts []domain.Alert) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, alerts...)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func testItems() []domain.InventoryItem {
	return []domain.InventoryItem{
		{SKUID: "FOOD-001", SKUName: "Rice", Location: "North", Category: "food", ABCClass: domain.ClassA,
			QuantityOnHand: 0, SafetyStock: 40, ReorderPoint: 80, LeadTimeDays: 7, AvgDailySales: 5, UnitCostUSD: 2, SupplierName: "AgriFoods"},
		{SKUID: "MED-001", SKUName: "Bandage", Location: "North", Category: "medicines", ABCClass: domain.ClassA,
			QuantityOnHand: 10, SafetyStock: 40, ReorderPoint: 80, LeadTimeDays: 7, AvgDailySales: 5, UnitCostUSD: 10, SupplierName: "MedSupply"},
		{SKUID: "FOOD-002", SKUName: "Beans", Location: "South", Category: "food", ABCClass: domain.ClassB,
			QuantityOnHand: 60, SafetyStock: 40, ReorderPoint: 80, LeadTimeDays: 7, AvgDailySales: 5, UnitCostUSD: 1, SupplierName: "AgriFoods"},
		{SKUID: "SUP-001", SKUName: "Gloves", Location: "South", Category: "supplies", ABCClass: domain.ClassC,
			QuantityOnHand: 500, SafetyStock: 40, ReorderPoint: 80, LeadTimeDays: 7, AvgDailySales: 0, UnitCostUSD: 4},
	}
}

// newTestService passes untyped nils for a nil cache or publisher so the
// service falls back to its noop implementations.
func newTestService(repo *fakeRepo, c *memoryCache, p *recordingPublisher) *InventoryService {
	var oc cache.OverviewCache
	if c != nil {
		oc = c
	}
	var pub messaging.AlertPublisher
	if p != nil {
		pub = p
	}

	svc := NewInventoryService(repo, oc, pub, nil, InventoryOptions{
		Source:   "test",
		Planner:  stock_health.DefaultPlannerOptions(),
		Forecast: stock_health.DefaultForecastOptions(),
		Seed:     42,
	})
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestGetItemsStatusFilterAndPaging(t *testing.T) {
	svc := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	ctx := context.Background()

	page, err := svc.GetItems(ctx, domain.InventoryFilter{Statuses: []domain.StockStatus{domain.StatusCritical, domain.StatusOutOfStock}})
	if err != nil {
		t.Fatalf("GetItems: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Fatalf("total = %d, items = %d; want 2, 2", page.Total, len(page.Items))
	}
	if page.SnapshotDate != "2025-03-31" {
		t.Errorf("snapshot date = %s", page.SnapshotDate)
	}

	page, err = svc.GetItems(ctx, domain.InventoryFilter{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("GetItems page 2: %v", err)
	}
	if page.Total != 4 || len(page.Items) != 1 || page.Items[0].SKUID != "SUP-001" {
		t.Fatalf("page 2 = %+v", page)
	}

	page, _ = svc.GetItems(ctx, domain.InventoryFilter{Page: 9, PageSize: 3})
	if len(page.Items) != 0 {
		t.Errorf("page past the end returned %d items", len(page.Items))
	}
}

func TestGetOverviewUsesCache(t *testing.T) {
	repo := &fakeRepo{items: testItems()}
	c := &memoryCache{}
	svc := newTestService(repo, c, nil)
	ctx := context.Background()

	first, err := svc.GetOverview(ctx, domain.InventoryFilter{})
	if err != nil {
		t.Fatalf("GetOverview: %v", err)
	}
	if first.HealthScore != 25 || first.SnapshotDate != "2025-03-31" {
		t.Errorf("overview = %+v", first)
	}

	if _, err := svc.GetOverview(ctx, domain.InventoryFilter{}); err != nil {
		t.Fatalf("GetOverview cached: %v", err)
	}
	if repo.calls != 1 || c.sets != 1 {
		t.Errorf("repo calls = %d, cache sets = %d; want 1, 1", repo.calls, c.sets)
	}

	if err := svc.InvalidateCache(ctx); err != nil {
		t.Fatalf("InvalidateCache: %v", err)
	}
	svc.GetOverview(ctx, domain.InventoryFilter{})
	if repo.calls != 2 {
		t.Errorf("repo calls after invalidation = %d, want 2", repo.calls)
	}
}

func TestGetOverviewPropagatesRepoError(t *testing.T) {
	boom := errors.New("db down")
	svc := newTestService(&fakeRepo{err: boom}, nil, nil)
	if _, err := svc.GetOverview(context.Background(), domain.InventoryFilter{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestGetReorderList(t *testing.T) {
	svc := newTestService(&fakeRepo{items: testItems()}, nil, nil)

	list, err := svc.GetReorderList(context.Background(), domain.InventoryFilter{})
	if err != nil {
		t.Fatalf("GetReorderList: %v", err)
	}
	want := domain.ReorderSummary{Items: 3, UrgentItems: 2, TotalOrderValueUSD: 1049, Suppliers: 2}
	if list.Summary != want {
		t.Errorf("summary = %+v, want %+v", list.Summary, want)
	}
	if list.Items[0].SKUID != "FOOD-001" {
		t.Errorf("first = %s", list.Items[0].SKUID)
	}
}

func TestGetAlertsPublishes(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(&fakeRepo{items: testItems()}, nil, pub)

	got, err := svc.GetAlerts(context.Background(), domain.InventoryFilter{}, true)
	if err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if got.Summary.Total != 3 || len(pub.published) != 3 {
		t.Fatalf("alerts = %d, published = %d; want 3, 3", got.Summary.Total, len(pub.published))
	}
	if got.Alerts[0].Priority != domain.PriorityCritical {
		t.Errorf("first alert priority = %s", got.Alerts[0].Priority)
	}

	pub.published = nil
	if _, err := svc.GetAlerts(context.Background(), domain.InventoryFilter{}, false); err != nil {
		t.Fatalf("GetAlerts: %v", err)
	}
	if len(pub.published) != 0 {
		t.Error("alerts published without being asked to")
	}
}

func TestGetAlertsIgnoresPublishFailure(t *testing.T) {
	svc := newTestService(&fakeRepo{items: testItems()}, nil, &recordingPublisher{err: errors.New("broker down")})
	if _, err := svc.GetAlerts(context.Background(), domain.InventoryFilter{}, true); err != nil {
		t.Fatalf("publish failure leaked: %v", err)
	}
}

func TestGetForecasts(t *testing.T) {
	svc := newTestService(&fakeRepo{items: testItems()}, nil, nil)

	got, err := svc.GetForecasts(context.Background(), domain.InventoryFilter{}, 7)
	if err != nil {
		t.Fatalf("GetForecasts: %v", err)
	}
	if len(got.Forecasts) != 4 || got.Summary.Items != 4 {
		t.Fatalf("forecasts = %d", len(got.Forecasts))
	}
	for i, f := range got.Forecasts {
		if f.HorizonDays != 7 {
			t.Errorf("horizon = %d, want 7", f.HorizonDays)
		}
		if i > 0 && f.PredictedDaysToStockout < got.Forecasts[i-1].PredictedDaysToStockout {
			t.Errorf("forecasts not sorted at %d", i)
		}
	}
	if got.Forecasts[0].SKUID != "FOOD-001" {
		t.Errorf("soonest stockout = %s, want FOOD-001", got.Forecasts[0].SKUID)
	}
}

func TestGetForecastsRejectsHorizonAboveLimit(t *testing.T) {
	repo := &fakeRepo{items: testItems()}
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	if svc.MaxHorizonDays() != stock_health.DefaultMaxHorizonDays {
		t.Fatalf("limit = %d", svc.MaxHorizonDays())
	}
	if _, err := svc.GetForecasts(ctx, domain.InventoryFilter{}, 100000); !errors.Is(err, ErrInvalidHorizon) {
		t.Fatalf("err = %v, want ErrInvalidHorizon", err)
	}
	if _, err := svc.GetItemForecast(ctx, "MED-001", "", domain.InventoryFilter{}, 91); !errors.Is(err, ErrInvalidHorizon) {
		t.Fatalf("err = %v, want ErrInvalidHorizon", err)
	}
	if repo.calls != 0 {
		t.Errorf("snapshot loaded for a rejected horizon")
	}

	got, err := svc.GetForecasts(ctx, domain.InventoryFilter{}, stock_health.DefaultMaxHorizonDays)
	if err != nil {
		t.Fatalf("GetForecasts at the limit: %v", err)
	}
	if got.Forecasts[0].HorizonDays != stock_health.DefaultMaxHorizonDays {
		t.Errorf("horizon = %d", got.Forecasts[0].HorizonDays)
	}
}

func TestGetItemForecast(t *testing.T) {
	svc := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	ctx := context.Background()

	items, err := svc.GetItemForecast(ctx, "med-001", "", domain.InventoryFilter{}, 0)
	if err != nil {
		t.Fatalf("GetItemForecast: %v", err)
	}
	if len(items) != 1 || items[0].Forecast == nil {
		t.Fatalf("items = %+v", items)
	}

	if _, err := svc.GetItemForecast(ctx, "MED-001", "South", domain.InventoryFilter{}, 0); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestGetDashboard(t *testing.T) {
	repo := &fakeRepo{items: testItems()}
	svc := newTestService(repo, nil, nil)

	d, err := svc.GetDashboard(context.Background(), domain.InventoryFilter{}, 30)
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if d.Overview.TotalItems != 4 || d.Alerts.Total != 3 || d.Forecasts.Items != 4 {
		t.Errorf("dashboard = %+v", d)
	}
	if d.Anomalies == nil {
		t.Error("anomalies should be an empty slice")
	}
	if repo.calls != 1 {
		t.Errorf("snapshot loaded %d times, want 1", repo.calls)
	}
}

type memoryStore struct {
	objects map[string][]byte
	types   map[string]string
}

func (m *memoryStore) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	if m.objects == nil {
		m.objects, m.types = map[string][]byte{}, map[string]string{}
	}
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryStore) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (m *memoryStore) DownloadObject(ctx context.Context, key, destPath string) error {
	return errors.New("not implemented")
}

type memoryExportLog struct {
	records []domain.ExportRecord
}

func (l *memoryExportLog) LogExport(ctx context.Context, rec *domain.ExportRecord) error {
	l.records = append(l.records, *rec)
	return nil
}

func (l *memoryExportLog) ListExports(ctx context.Context, limit int) ([]domain.ExportRecord, error) {
	return l.records, nil
}

func TestExportReorderList(t *testing.T) {
	inv := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	store := &memoryStore{}
	exportLog := &memoryExportLog{}

	svc := NewExportService(inv, store, exportLog, "reorder")
	svc.now = func() time.Time { return time.Date(2025, 3, 31, 8, 30, 0, 0, time.UTC) }

	res, err := svc.ExportReorderList(context.Background(), domain.InventoryFilter{}, export.FormatCSV)
	if err != nil {
		t.Fatalf("ExportReorderList: %v", err)
	}
	if res.FileName != "reorder_list_20250331_083000.csv" {
		t.Errorf("file name = %s", res.FileName)
	}
	wantKey := "reorder/2025/03/31/reorder_list_20250331_083000.csv"
	if _, ok := store.objects[wantKey]; !ok {
		t.Fatalf("object %s not uploaded, have %v", wantKey, store.objects)
	}
	if store.types[wantKey] != "text/csv" {
		t.Errorf("content type = %s", store.types[wantKey])
	}
	if len(exportLog.records) != 1 || exportLog.records[0].Items != 3 || exportLog.records[0].ObjectKey != wantKey {
		t.Errorf("export log = %+v", exportLog.records)
	}
	if lines := strings.Count(string(res.Data), "\n"); lines != 4 {
		t.Errorf("csv lines = %d, want 4", lines)
	}
}

func TestExportWithoutStorage(t *testing.T) {
	inv := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	svc := NewExportService(inv, nil, nil, "")

	res, err := svc.ExportReorderList(context.Background(), domain.InventoryFilter{}, export.FormatXLSX)
	if err != nil {
		t.Fatalf("ExportReorderList: %v", err)
	}
	if res.Record.ObjectKey != "" || len(res.Data) == 0 {
		t.Errorf("result = %+v", res.Record)
	}

	records, err := svc.ListExports(context.Background(), 5)
	if err != nil || len(records) != 0 {
		t.Errorf("ListExports = %v, %v", records, err)
	}
}

type stubCompleter struct {
	answer string
	err    error
	prompt string
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.answer, c.err
}

func TestInsightsAsk(t *testing.T) {
	inv := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	ctx := context.Background()

	model := &stubCompleter{answer: "Reorder rice first."}
	got, err := NewInsightsService(inv, model, nil).Ask(ctx, domain.InventoryFilter{}, "  what should I order?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got.Source != InsightSourceModel || got.Answer != "Reorder rice first." || got.Question != "what should I order?" {
		t.Errorf("insight = %+v", got)
	}
	if !strings.Contains(model.prompt, "what should I order?") {
		t.Errorf("prompt does not carry the question")
	}

	got, err = NewInsightsService(inv, nil, nil).Ask(ctx, domain.InventoryFilter{}, "")
	if err != nil {
		t.Fatalf("Ask fallback: %v", err)
	}
	if got.Source != InsightSourceFallback || got.Answer == "" || got.SnapshotDate != "2025-03-31" {
		t.Errorf("fallback insight = %+v", got)
	}

	boom := errors.New("rate limited")
	if _, err := NewInsightsService(inv, &stubCompleter{err: boom}, nil).Ask(ctx, domain.InventoryFilter{}, ""); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestGetTrends(t *testing.T) {
	start := time.Date(2025, 3, 29, 0, 0, 0, 0, time.UTC)
	var history []domain.StockHistoryPoint
	for i, qty := range []float64{100, 90, 75} {
		history = append(history,
			domain.StockHistoryPoint{Date: start.AddDate(0, 0, i), SKUID: "MED-001", Location: "North", Category: "medicines", Quantity: qty},
			domain.StockHistoryPoint{Date: start.AddDate(0, 0, i), SKUID: "FOOD-001", Location: "North", Category: "food", Quantity: 50},
		)
	}
	svc := newTestService(&fakeRepo{items: testItems(), history: history}, nil, nil)
	ctx := context.Background()

	got, err := svc.GetTrends(ctx, domain.InventoryFilter{}, 7)
	if err != nil {
		t.Fatalf("GetTrends: %v", err)
	}
	if got.Days != 7 || len(got.Points) != 6 || got.SnapshotDate != "2025-03-31" {
		t.Fatalf("trends = %+v", got)
	}
	if got.TotalConsumption != 25 || got.LatestStock != 125 {
		t.Errorf("consumption = %v, latest stock = %v", got.TotalConsumption, got.LatestStock)
	}
	if len(got.Locations) != 2 || got.Locations[0].Location != "South" {
		t.Errorf("locations = %+v", got.Locations)
	}

	defaulted, err := svc.GetTrends(ctx, domain.InventoryFilter{}, 0)
	if err != nil || defaulted.Days != 30 {
		t.Errorf("default window = %+v, %v", defaulted, err)
	}

	for _, days := range []int{5, 31, 365} {
		if _, err := svc.GetTrends(ctx, domain.InventoryFilter{}, days); !errors.Is(err, ErrInvalidTrendWindow) {
			t.Errorf("days %d: err = %v, want ErrInvalidTrendWindow", days, err)
		}
	}
}

// scriptedCompleter returns answers in order and records every prompt.
type scriptedCompleter struct {
	answers []string
	prompts []string
}

func (c *scriptedCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if len(c.prompts) > len(c.answers) {
		return "", errors.New("unexpected completion")
	}
	return c.answers[len(c.prompts)-1], nil
}

type fakeQuerier struct {
	result  *domain.QueryResult
	err     error
	queries []string
}

func (q *fakeQuerier) QueryReadOnly(ctx context.Context, query string, maxRows int) (*domain.QueryResult, error) {
	q.queries = append(q.queries, query)
	return q.result, q.err
}

func TestInsightsAskSQL(t *testing.T) {
	inv := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	ctx := context.Background()
	question := "which items are out of stock?"

	tests := []struct {
		name      string
		generated string
		querier   *fakeQuerier
		wantRan   bool
		wantError string
		wantInLLM string
	}{
		{
			name:      "select runs",
			generated: "```sql\nSELECT sku_name FROM stock_health_snapshots WHERE stock_status = 'OUT_OF_STOCK';\n```",
			querier:   &fakeQuerier{result: &domain.QueryResult{Columns: []string{"sku_name"}, Rows: [][]interface{}{{"Rice"}}}},
			wantRan:   true,
			wantInLLM: "QUERY RESULTS (1 rows)",
		},
		{
			name:      "write rejected",
			generated: "DELETE FROM stock_health_snapshots",
			querier:   &fakeQuerier{},
			wantError: "not a single SELECT",
			wantInLLM: "ERROR MESSAGE:",
		},
		{
			name:      "stacked statements rejected",
			generated: "SELECT 1; DROP TABLE stock_health_snapshots",
			querier:   &fakeQuerier{},
			wantError: "multiple statements",
			wantInLLM: "ERROR MESSAGE:",
		},
		{
			name:      "query error explained",
			generated: "SELECT nope FROM stock_health_snapshots",
			querier:   &fakeQuerier{err: errors.New(`column "nope" does not exist`)},
			wantRan:   true,
			wantError: "does not exist",
			wantInLLM: `column "nope" does not exist`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &scriptedCompleter{answers: []string{tt.generated, "explained"}}
			got, err := NewInsightsService(inv, model, tt.querier).AskSQL(ctx, domain.InventoryFilter{}, question)
			if err != nil {
				t.Fatalf("AskSQL: %v", err)
			}
			if got.Answer != "explained" || got.Source != InsightSourceModel {
				t.Errorf("insight = %+v", got)
			}
			if ran := len(tt.querier.queries) > 0; ran != tt.wantRan {
				t.Fatalf("query ran = %v, want %v", ran, tt.wantRan)
			}
			if tt.wantRan && strings.HasSuffix(tt.querier.queries[0], ";") {
				t.Errorf("query not cleaned: %q", tt.querier.queries[0])
			}
			if tt.wantError == "" && (got.Error != "" || got.RowCount != 1) {
				t.Errorf("error = %q, rows = %d", got.Error, got.RowCount)
			}
			if !strings.Contains(got.Error, tt.wantError) {
				t.Errorf("error = %q, want %q", got.Error, tt.wantError)
			}
			if len(model.prompts) != 2 || !strings.Contains(model.prompts[1], tt.wantInLLM) {
				t.Errorf("answer prompt = %v", model.prompts)
			}
			if !strings.Contains(model.prompts[0], "USER QUESTION: "+question) {
				t.Errorf("generation prompt does not carry the question")
			}
		})
	}
}

func TestInsightsAskSQLFallsBack(t *testing.T) {
	inv := newTestService(&fakeRepo{items: testItems()}, nil, nil)
	ctx := context.Background()

	got, err := NewInsightsService(inv, nil, &fakeQuerier{}).AskSQL(ctx, domain.InventoryFilter{}, "what is low?")
	if err != nil {
		t.Fatalf("AskSQL without model: %v", err)
	}
	if got.Source != InsightSourceFallback || got.Answer == "" || got.SQL != "" {
		t.Errorf("insight = %+v", got)
	}

	model := &stubCompleter{answer: "Order rice."}
	got, err = NewInsightsService(inv, model, nil).AskSQL(ctx, domain.InventoryFilter{}, "what is low?")
	if err != nil {
		t.Fatalf("AskSQL without querier: %v", err)
	}
	if got.Source != InsightSourceModel || got.Answer != "Order rice." || strings.Contains(model.prompt, "DATABASE SCHEMA") {
		t.Errorf("insight = %+v", got)
	}

	if _, err := NewInsightsService(inv, model, &fakeQuerier{}).AskSQL(ctx, domain.InventoryFilter{}, "   "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("err = %v, want ErrEmptyQuestion", err)
	}
}
