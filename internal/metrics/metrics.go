// Package metrics exposes prometheus collectors for the API and the evaluation core.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	evaluations     *prometheus.CounterVec
	itemsEvaluated  prometheus.Counter
	stockStatus     *prometheus.GaugeVec
	alertsPublished prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. When reg is nil a
// private registry is used.
func New(prefix string, reg prometheus.Registerer) *Metrics {
	if prefix == "" {
		prefix = "stockwatch"
	}

	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if reg == nil {
		r := prometheus.NewRegistry()
		reg, gatherer = r, r
	} else if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "evaluations_total",
			Help:      "Snapshot evaluations by data source",
		}, []string{"source"}),
		itemsEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "items_evaluated_total",
			Help:      "Inventory items passed through the classifier and planner",
		}),
		stockStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: prefix,
			Name:      "stock_status_items",
			Help:      "Items per stock status in the most recent evaluation",
		}, []string{"status"}),
		alertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "alerts_published_total",
			Help:      "Alerts handed to the alert publisher",
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(m.requests, m.requestDuration, m.evaluations, m.itemsEvaluated, m.stockStatus, m.alertsPublished)
	return m
}

// ObserveEvaluation records one snapshot evaluation.
func (m *Metrics) ObserveEvaluation(source string, counts domain.StatusCounts) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(source).Inc()
	m.itemsEvaluated.Add(float64(counts.Total()))
	for _, s := range domain.AllStockStatuses {
		m.stockStatus.WithLabelValues(string(s)).Set(float64(counts.Get(s)))
	}
}

func (m *Metrics) AlertsPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.alertsPublished.Add(float64(n))
}

// Middleware records request counts and latency by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requests.WithLabelValues(c.Request.Method, path, status).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
