package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog/log"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS stock_health_snapshots (
		snapshot_date              DATE             NOT NULL,
		sku_id                     TEXT             NOT NULL,
		sku_name                   TEXT             NOT NULL DEFAULT '',
		category                   TEXT             NOT NULL DEFAULT '',
		location                   TEXT             NOT NULL,
		abc_class                  TEXT             NOT NULL DEFAULT 'C',
		quantity_on_hand           DOUBLE PRECISION NOT NULL DEFAULT 0,
		quantity_reserved          DOUBLE PRECISION NOT NULL DEFAULT 0,
		quantity_committed         DOUBLE PRECISION NOT NULL DEFAULT 0,
		available_stock            DOUBLE PRECISION NOT NULL DEFAULT 0,
		reorder_point              DOUBLE PRECISION NOT NULL DEFAULT 0,
		safety_stock               DOUBLE PRECISION NOT NULL DEFAULT 0,
		lead_time_days             DOUBLE PRECISION NOT NULL DEFAULT 7,
		max_stock                  DOUBLE PRECISION NOT NULL DEFAULT 0,
		avg_daily_sales            DOUBLE PRECISION NOT NULL DEFAULT 1,
		unit_cost_usd              DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_inventory_value_usd  DOUBLE PRECISION NOT NULL DEFAULT 0,
		supplier_name              TEXT             NOT NULL DEFAULT '',
		supplier_ontime_pct        DOUBLE PRECISION NOT NULL DEFAULT 0,
		last_updated               TIMESTAMPTZ,
		days_until_stockout        DOUBLE PRECISION,
		stock_status               TEXT,
		risk_score                 DOUBLE PRECISION,
		recommended_order_qty      DOUBLE PRECISION,
		economic_order_qty         DOUBLE PRECISION,
		priority_score             INTEGER,
		urgent                     BOOLEAN,
		stockout_risk              TEXT,
		predicted_days_to_stockout DOUBLE PRECISION,
		loaded_at                  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (snapshot_date, sku_id, location)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_health_snapshots_location ON stock_health_snapshots (location, category)`,
	`CREATE TABLE IF NOT EXISTS pipeline_runs (
		id              BIGSERIAL PRIMARY KEY,
		pipeline_name   TEXT        NOT NULL,
		date            DATE        NOT NULL,
		status          TEXT        NOT NULL,
		total_files     INTEGER     NOT NULL DEFAULT 0,
		processed_files INTEGER     NOT NULL DEFAULT 0,
		total_rows      INTEGER     NOT NULL DEFAULT 0,
		started_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at    TIMESTAMPTZ,
		error_message   TEXT,
		UNIQUE (pipeline_name, date)
	)`,
	`CREATE TABLE IF NOT EXISTS pipeline_file_jobs (
		id              BIGSERIAL PRIMARY KEY,
		pipeline_run_id BIGINT  NOT NULL REFERENCES pipeline_runs (id) ON DELETE CASCADE,
		file_path       TEXT    NOT NULL,
		status          TEXT    NOT NULL,
		error_message   TEXT,
		processed_at    TIMESTAMPTZ,
		retry_count     INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS export_log (
		id              UUID PRIMARY KEY,
		format          TEXT             NOT NULL,
		file_name       TEXT             NOT NULL,
		object_key      TEXT             NOT NULL DEFAULT '',
		items           INTEGER          NOT NULL,
		total_value_usd DOUBLE PRECISION NOT NULL,
		created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the tables the service and the pipeline need.
func (db *DB) EnsureSchema(ctx context.Context) error {
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range schemaStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("error applying schema: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Int("statements", len(schemaStatements)).Msg("database schema ensured")
	return nil
}
