package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/andresuchdata/stockwatch/internal/config"
	"github.com/andresuchdata/stockwatch/internal/domain"
	"github.com/andresuchdata/stockwatch/internal/export"
	stockhealth "github.com/andresuchdata/stockwatch/internal/pipeline/stock_health"
	"github.com/andresuchdata/stockwatch/pkg/logger"
	"github.com/urfave/cli/v2"
)

func runExport(c *cli.Context) error {
	format, err := export.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	list, err := reorderListFromCSV(c, c.String("input"))
	if err != nil {
		return err
	}

	dir := c.String("out-dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	path := filepath.Join(dir, export.FileName(format, time.Now()))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Write(f, format, list); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	summary := stockhealth.SummarizeReorder(list)
	logger.Log.Info().
		Str("path", path).
		Int("items", summary.Items).
		Int("urgent", summary.UrgentItems).
		Float64("total_usd", summary.TotalOrderValueUSD).
		Msg("Reorder list exported")
	return nil
}

func reorderListFromCSV(c *cli.Context, input string) ([]domain.EvaluatedItem, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raws, err := stockhealth.ReadSnapshotCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", input, err)
	}

	items := make([]domain.InventoryItem, 0, len(raws))
	for _, raw := range raws {
		items = append(items, stockhealth.DefaultOptionalFields.Resolve(raw))
	}

	cfg := config.Load().Planner
	calc := stockhealth.NewInventoryCalculator(stockhealth.PlannerOptions{
		OrderingCostUSD: cfg.OrderingCostUSD,
		HoldingRate:     cfg.HoldingRate,
	}, nil)
	evaluated, err := calc.CalculateAll(c.Context, items)
	if err != nil {
		return nil, err
	}
	return stockhealth.BuildReorderList(evaluated), nil
}
