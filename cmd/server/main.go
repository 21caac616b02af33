package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andresuchdata/stockwatch/internal/api"
	"github.com/andresuchdata/stockwatch/internal/cache"
	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/demo"
	"github.com/andresuchdata/stockwatch/internal/insights"
	"github.com/andresuchdata/stockwatch/internal/messaging"
	"github.com/andresuchdata/stockwatch/internal/metrics"
	"github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/internal/repository"
	"github.com/andresuchdata/stockwatch/internal/repository/postgres"
	"github.com/andresuchdata/stockwatch/internal/service"
	"github.com/andresuchdata/stockwatch/internal/storage"
	"github.com/andresuchdata/stockwatch/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Prefix, prometheus.DefaultRegisterer)
	}

	src := openSource(ctx, cfg)
	defer src.close()

	overviewCache := cache.NewNoopOverviewCache()
	if cfg.Cache.Enabled {
		client, err := cache.NewRedisClient(ctx, cfg.Cache)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Redis unavailable, overview cache disabled")
		} else {
			defer client.Close()
			overviewCache = cache.NewOverviewCache(client, cache.SummaryTTL(cfg.Cache))
			logger.Log.Info().Msg("Overview cache enabled")
		}
	}

	publisher := messaging.NewNoopAlertPublisher()
	if cfg.Kafka.Enabled {
		publisher = messaging.NewKafkaAlertPublisher(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic)
		logger.Log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.AlertTopic).Msg("Alert publishing enabled")
	}
	defer publisher.Close()

	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(ctx, cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, exports will not be uploaded")
		} else {
			store = client
		}
	}

	inventory := service.NewInventoryService(src.inventory, overviewCache, publisher, m, service.InventoryOptions{
		Source: cfg.Source.Mode,
		Planner: stock_health.PlannerOptions{
			OrderingCostUSD: cfg.Planner.OrderingCostUSD,
			HoldingRate:     cfg.Planner.HoldingRate,
		},
		Forecast: stock_health.ForecastOptions{
			HorizonDays:    cfg.Forecast.HorizonDays,
			MaxHorizonDays: cfg.Forecast.MaxHorizonDays,
			MaxItems:       cfg.Forecast.MaxItems,
		},
		Seed: cfg.Forecast.Seed,
	})

	router := api.NewRouter(&api.Services{
		Inventory: inventory,
		Export:    service.NewExportService(inventory, store, src.exportLog, cfg.Storage.Prefix),
		Insights:  service.NewInsightsService(inventory, insights.NewCompleter(cfg.LLM.APIKey, cfg.LLM.Model), src.querier),
		Metrics:   m,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("source", cfg.Source.Mode).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

type source struct {
	inventory repository.InventoryRepository
	exportLog repository.ExportLogRepository
	// nil in demo mode, where questions are answered from the overview
	querier   repository.ReadOnlyQuerier
	close     func()
}

// openSource returns the snapshot store selected by SOURCE_MODE.
func openSource(ctx context.Context, cfg *config.Config) source {
	if cfg.Source.Mode != config.SourceWarehouse {
		data := demo.Generate(demo.Options{Seed: cfg.Source.DemoSeed, HistoryDays: cfg.Source.HistoryDays})
		repo := demo.NewRepository(data)
		logger.Log.Info().
			Int64("seed", cfg.Source.DemoSeed).
			Int("days", len(data.Dates)).
			Msg("Serving generated demo inventory")
		return source{inventory: repo, exportLog: repo, close: func() {}}
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		os.Exit(1)
	}
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to ensure schema")
	}

	return source{
		inventory: postgres.NewInventoryRepository(db.DB),
		exportLog: postgres.NewExportLogRepository(db),
		querier:   postgres.NewReadOnlyQuerier(db),
		close:     func() { db.Close() },
	}
}
