package main

import (
	"fmt"
	"runtime"

	"github.com/andresuchdata/stockwatch/internal/analytics"
	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/pipeline"
	stockhealth "github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/internal/repository/postgres"
	"github.com/andresuchdata/stockwatch/pkg/logger"
	"github.com/urfave/cli/v2"
)

const stockHealthPipelineName = "stock_health"

func pipelineFlags() []cli.Flag {
	return []cli.Flag{
		newDBURLFlag(),
		&cli.StringFlag{
			Name:    "input-dir",
			Usage:   "Directory containing snapshot files (.csv or .xlsx) named YYYYMMDD*",
			Value:   "./data/uploads/stock_health/raw",
			EnvVars: []string{"STOCK_HEALTH_INPUT_DIR"},
		},
		&cli.BoolFlag{
			Name:    "from-bucket",
			Usage:   "Download snapshot files from the object storage bucket first",
			EnvVars: []string{"STOCK_HEALTH_FROM_BUCKET"},
		},
		&cli.StringFlag{
			Name:    "bucket-prefix",
			Usage:   "Object key prefix holding snapshot files",
			Value:   "snapshots",
			EnvVars: []string{"STOCK_HEALTH_BUCKET_PREFIX"},
		},
		&cli.StringFlag{
			Name:  "object",
			Usage: "Download a single object (relative to --bucket-prefix) instead of the whole prefix",
		},
		&cli.StringFlag{
			Name:    "intermediate-dir",
			Usage:   "Root directory for stock health intermediate outputs",
			Value:   "./data/intermediate/stock_health",
			EnvVars: []string{"STOCK_HEALTH_INTERMEDIATE_DIR"},
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Usage:   "Directory for consolidated stock health CSVs",
			Value:   "./data/seeds/stock_health",
			EnvVars: []string{"STOCK_HEALTH_OUTPUT_DIR"},
		},
		&cli.StringFlag{
			Name:    "input-date-format",
			Usage:   "Date layout at the start of input filenames (Go layout)",
			Value:   "20060102",
			EnvVars: []string{"STOCK_HEALTH_INPUT_DATE_FORMAT"},
		},
		&cli.BoolFlag{
			Name:    "persist-metrics-layer",
			Usage:   "Write evaluated rows per file for debugging",
			EnvVars: []string{"STOCK_HEALTH_PERSIST_METRICS_LAYER"},
		},
		&cli.IntFlag{
			Name:    "pipeline-workers",
			Usage:   "Number of concurrent workers",
			Value:   runtime.NumCPU(),
			EnvVars: []string{"PIPELINE_WORKERS"},
		},
		&cli.IntFlag{
			Name:    "batch-size",
			Usage:   "Files buffered before a flush",
			Value:   5,
			EnvVars: []string{"PIPELINE_BATCH_SIZE"},
		},
	}
}

func newStockHealthPipeline(c *cli.Context) (*stockhealth.StockHealthPipeline, pipeline.PipelineConfig) {
	cfg := config.Load()

	impl := stockhealth.NewStockHealthPipeline(stockhealth.Config{
		InputDateFormat:     c.String("input-date-format"),
		OutputDir:           c.String("output-dir"),
		IntermediateDir:     c.String("intermediate-dir"),
		PersistMetricsLayer: c.Bool("persist-metrics-layer"),
		Defaults:            stockhealth.DefaultOptionalFields,
		Planner: stockhealth.PlannerOptions{
			OrderingCostUSD: cfg.Planner.OrderingCostUSD,
			HoldingRate:     cfg.Planner.HoldingRate,
		},
		Forecast: stockhealth.ForecastOptions{
			HorizonDays:    cfg.Forecast.HorizonDays,
			MaxHorizonDays: cfg.Forecast.MaxHorizonDays,
			MaxItems:       cfg.Forecast.MaxItems,
		},
		Seed: cfg.Forecast.Seed,
	})

	pCfg := pipeline.DefaultPipelineConfig(impl.Name())
	pCfg.OutputDir = c.String("output-dir")
	pCfg.IntermediateDir = c.String("intermediate-dir")
	pCfg.WorkerCount = c.Int("pipeline-workers")
	if n := c.Int("batch-size"); n > 0 {
		pCfg.BatchSize = n
	}
	return impl, pCfg
}

// newOrchestrator wires the run tracker (database/sql over pgx) and the COPY loader (pgx pool).
func newOrchestrator(c *cli.Context, pCfg pipeline.PipelineConfig) (*pipeline.Orchestrator, func(), error) {
	db, err := openTrackerDB(c)
	if err != nil {
		return nil, nil, err
	}

	pool, err := postgres.NewPool(c.Context, databaseConfig(c))
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	loader := analytics.NewSnapshotLoader(pool)
	orch := pipeline.NewOrchestrator(pipeline.NewRepository(db), loader.Load, pCfg)
	return orch, func() {
		pool.Close()
		db.Close()
	}, nil
}

func runPipeline(c *cli.Context) error {
	var (
		files []string
		err   error
	)
	if c.Bool("from-bucket") {
		downloader, derr := newBucketDownloader(c.Context, c.String("input-dir"))
		if derr != nil {
			return derr
		}
		files, err = downloader.download(c.Context, c.String("bucket-prefix"), c.String("object"))
	} else {
		files, err = collectSnapshotFiles(c.String("input-dir"))
	}
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Log.Info().Str("dir", c.String("input-dir")).Msg("No snapshot files found; nothing to process")
		return nil
	}

	impl, pCfg := newStockHealthPipeline(c)
	orch, closeFn, err := newOrchestrator(c, pCfg)
	if err != nil {
		return err
	}
	defer closeFn()

	logger.Log.Info().Int("files", len(files)).Int("workers", pCfg.WorkerCount).Msg("Running stock health pipeline")
	if err := orch.Run(c.Context, impl, files); err != nil {
		return fmt.Errorf("stock health pipeline run failed: %w", err)
	}

	logger.Log.Info().Msg("Stock health pipeline completed successfully")
	return nil
}

func runRetry(c *cli.Context) error {
	impl, pCfg := newStockHealthPipeline(c)
	orch, closeFn, err := newOrchestrator(c, pCfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := orch.Retry(c.Context, impl); err != nil {
		return fmt.Errorf("stock health retry failed: %w", err)
	}
	logger.Log.Info().Msg("Stock health retry completed")
	return nil
}
