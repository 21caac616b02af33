package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockwatch/internal/api/handlers"
	"github.com/andresuchdata/stockwatch/internal/api/middleware"
	"github.com/andresuchdata/stockwatch/internal/metrics"
	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Inventory *service.InventoryService
	Export    *service.ExportService
	Insights  *service.InsightsService
	Metrics   *metrics.Metrics
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	var m *metrics.Metrics
	if services != nil {
		m = services.Metrics
	}
	router.Use(m.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Inventory != nil {
			inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
			inventoryGroup := apiGroup.Group("/inventory")
			{
				inventoryGroup.GET("/items", inventoryHandler.GetItems)
				inventoryGroup.GET("/items/:sku_id/forecast", inventoryHandler.GetItemForecast)
				inventoryGroup.GET("/summary", inventoryHandler.GetSummary)
				inventoryGroup.GET("/dashboard", inventoryHandler.GetDashboard)
				inventoryGroup.GET("/reorder", inventoryHandler.GetReorderList)
				inventoryGroup.GET("/forecasts", inventoryHandler.GetForecasts)
				inventoryGroup.GET("/alerts", inventoryHandler.GetAlerts)
				inventoryGroup.GET("/anomalies", inventoryHandler.GetAnomalies)
				inventoryGroup.GET("/trends", inventoryHandler.GetTrends)
				inventoryGroup.GET("/heatmap", inventoryHandler.GetHeatmap)
				inventoryGroup.GET("/filters", inventoryHandler.GetFilterOptions)
				inventoryGroup.GET("/dates", inventoryHandler.GetAvailableDates)
				inventoryGroup.POST("/cache/invalidate", inventoryHandler.InvalidateCache)

				breakdownGroup := inventoryGroup.Group("/breakdown")
				{
					breakdownGroup.GET("/locations", inventoryHandler.GetLocationBreakdown)
					breakdownGroup.GET("/categories", inventoryHandler.GetCategoryBreakdown)
					breakdownGroup.GET("/abc", inventoryHandler.GetABCBreakdown)
				}
			}

			if services.Export != nil {
				exportHandler := handlers.NewExportHandler(services.Export)
				inventoryGroup.GET("/reorder/export", exportHandler.ExportReorderList)
				inventoryGroup.GET("/exports", exportHandler.ListExports)
			}

			if services.Insights != nil {
				insightsHandler := handlers.NewInsightsHandler(services.Insights)
				inventoryGroup.POST("/insights", insightsHandler.Ask)
				inventoryGroup.POST("/insights/sql", insightsHandler.AskSQL)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
