package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/demo"
	"github.com/andresuchdata/stockwatch/internal/pipeline"
	"github.com/andresuchdata/stockwatch/internal/repository/postgres"
	"github.com/andresuchdata/stockwatch/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

// databaseConfig overlays --db-url on the loaded settings.
func databaseConfig(c *cli.Context) config.DatabaseConfig {
	cfg := config.Load().Database
	if url := c.String("db-url"); url != "" {
		cfg.URL = url
	}
	return cfg
}

func openTrackerDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", databaseConfig(c).DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)

	app := &cli.App{
		Name:  "seed",
		Usage: "Generate, load and inspect inventory snapshots",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "Write a reproducible demo data set as CSV",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "seed", Value: demo.DefaultSeed, EnvVars: []string{"DEMO_SEED"}},
					&cli.IntFlag{Name: "days", Usage: "Days of history to simulate", Value: demo.DefaultHistoryDays, EnvVars: []string{"DEMO_HISTORY_DAYS"}},
					&cli.StringFlag{Name: "out-dir", Value: filepath.Join(cfg.App.DataDir, "demo")},
					&cli.IntFlag{Name: "daily-files", Usage: "Also write the last N days as YYYYMMDD_demo.csv pipeline inputs"},
					&cli.StringFlag{Name: "end-date", Usage: "Last simulated day (YYYY-MM-DD), defaults to today"},
				},
				Action: runGenerate,
			},
			{
				Name:   "migrate",
				Usage:  "Create the snapshot, pipeline and export tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runMigrate,
			},
			{
				Name:   "pipeline",
				Usage:  "Evaluate snapshot CSV files and load them into stock_health_snapshots",
				Flags:  pipelineFlags(),
				Action: runPipeline,
			},
			{
				Name:   "retry",
				Usage:  "Re-process failed snapshot files",
				Flags:  pipelineFlags(),
				Action: runRetry,
			},
			{
				Name:  "runs",
				Usage: "List recent pipeline runs",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{Name: "limit", Value: 20},
				},
				Action: runListRuns,
			},
			{
				Name:  "export",
				Usage: "Render the reorder list of a snapshot CSV without a database",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Usage: "Snapshot CSV", Required: true},
					&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or xlsx"},
					&cli.StringFlag{Name: "out-dir", Value: cfg.App.ExportDir},
				},
				Action: runExport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("seed failed")
	}
}

func runGenerate(c *cli.Context) error {
	opts := demo.Options{Seed: c.Int64("seed"), HistoryDays: c.Int("days")}
	if raw := c.String("end-date"); raw != "" {
		end, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid --end-date: %w", err)
		}
		opts.End = end
	}

	ds := demo.Generate(opts)
	dir := c.String("out-dir")
	if err := ds.WriteFiles(dir); err != nil {
		return err
	}

	if n := c.Int("daily-files"); n > 0 {
		paths, err := ds.WriteDailySnapshots(filepath.Join(dir, "daily"), n)
		if err != nil {
			return err
		}
		logger.Log.Info().Int("files", len(paths)).Msg("daily snapshot files written")
	}
	return nil
}

func runMigrate(c *cli.Context) error {
	db, err := postgres.NewDB(databaseConfig(c))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(c.Context); err != nil {
		return err
	}
	logger.Log.Info().Msg("schema is up to date")
	return nil
}

func runListRuns(c *cli.Context) error {
	db, err := openTrackerDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := pipeline.NewRepository(db).ListRecentRuns(c.Context, stockHealthPipelineName, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "%-6s %-10s %-10s %7s %7s  %s\n", "ID", "DATE", "STATUS", "FILES", "ROWS", "ERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%-6d %-10s %-10s %3d/%-3d %7d  %s\n",
			run.ID, run.Date.Format("2006-01-02"), run.Status,
			run.ProcessedFiles, run.TotalFiles, run.TotalRows, run.ErrorMessage)
	}
	return nil
}
