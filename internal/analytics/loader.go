// Package analytics loads pipeline output into the analytics tables.
package analytics

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SnapshotTable is the only table the loader writes.
const SnapshotTable = "stock_health_snapshots"

// SnapshotLoader bulk loads aggregated stock health CSVs with COPY and merges
// them into stock_health_snapshots, replacing rows of the same date, SKU and location.
type SnapshotLoader struct {
	pool *pgxpool.Pool
}

// NewSnapshotLoader creates a loader on top of a pgx pool.
func NewSnapshotLoader(pool *pgxpool.Pool) *SnapshotLoader {
	return &SnapshotLoader{pool: pool}
}

// Load has the pipeline.FlushFunc signature.
func (l *SnapshotLoader) Load(ctx context.Context, table, csvPath string) error {
	if table != SnapshotTable {
		return fmt.Errorf("unsupported output table %q", table)
	}

	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	rows, err := ReadSnapshotRows(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}
	if len(rows) == 0 {
		log.Info().Str("path", csvPath).Msg("nothing to load")
		return nil
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `CREATE TEMP TABLE stock_health_stage (LIKE stock_health_snapshots INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	names := columnNames()
	copied, err := tx.CopyFrom(ctx, pgx.Identifier{"stock_health_stage"}, names, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy rows: %w", err)
	}

	if _, err := tx.Exec(ctx, mergeQuery(names)); err != nil {
		return fmt.Errorf("failed to merge rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Info().Str("path", csvPath).Int64("rows", copied).Msg("loaded stock health snapshot")
	return nil
}

// mergeQuery upserts the staging rows. DISTINCT ON keeps one row per key so a
// CSV with repeated keys cannot hit the same target row twice.
func mergeQuery(names []string) string {
	keys := strings.Join(keyColumns, ", ")
	cols := strings.Join(names, ", ")

	isKey := make(map[string]bool, len(keyColumns))
	for _, k := range keyColumns {
		isKey[k] = true
	}
	var updates []string
	for _, n := range names {
		if !isKey[n] {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", n, n))
		}
	}
	updates = append(updates, "loaded_at = NOW()")

	return fmt.Sprintf(`
		INSERT INTO stock_health_snapshots (%s)
		SELECT DISTINCT ON (%s) %s
		FROM stock_health_stage
		ORDER BY %s
		ON CONFLICT (%s) DO UPDATE SET %s`,
		cols, keys, cols, keys, keys, strings.Join(updates, ", "))
}
