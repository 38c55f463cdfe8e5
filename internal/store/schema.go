package store

import (
	"context"
	"fmt"
)

// schema.go bootstraps the three tables on startup. Statements are
// idempotent; an existing database is left untouched.

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS unit_catalog (
		region       TEXT NOT NULL,
		depot        TEXT NOT NULL,
		unit         TEXT NOT NULL,
		vehicle_type TEXT NOT NULL,
		model        TEXT NOT NULL,
		baseline_km  DOUBLE PRECISION,
		PRIMARY KEY (depot, unit)
	)`,
	`CREATE TABLE IF NOT EXISTS efficiency_limits (
		region       TEXT NOT NULL,
		vehicle_type TEXT NOT NULL,
		model        TEXT NOT NULL,
		lower_limit  DOUBLE PRECISION,
		upper_limit  DOUBLE PRECISION,
		PRIMARY KEY (region, vehicle_type, model)
	)`,
	`CREATE TABLE IF NOT EXISTS daily_records (
		id             BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		date           DATE NOT NULL,
		region         TEXT NOT NULL,
		depot          TEXT NOT NULL,
		unit           TEXT NOT NULL,
		vehicle_type   TEXT NOT NULL,
		model          TEXT NOT NULL,
		start_km       DOUBLE PRECISION NOT NULL,
		end_km         DOUBLE PRECISION NOT NULL,
		distance_km    DOUBLE PRECISION NOT NULL,
		regular_l      DOUBLE PRECISION NOT NULL DEFAULT 0,
		regular_cost   DOUBLE PRECISION NOT NULL DEFAULT 0,
		mid_l          DOUBLE PRECISION NOT NULL DEFAULT 0,
		mid_cost       DOUBLE PRECISION NOT NULL DEFAULT 0,
		premium_l      DOUBLE PRECISION NOT NULL DEFAULT 0,
		premium_cost   DOUBLE PRECISION NOT NULL DEFAULT 0,
		diesel_l       DOUBLE PRECISION NOT NULL DEFAULT 0,
		diesel_cost    DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_liters   DOUBLE PRECISION NOT NULL,
		total_cost     DOUBLE PRECISION NOT NULL,
		efficiency_kml DOUBLE PRECISION NOT NULL,
		upper_limit    DOUBLE PRECISION,
		lower_limit    DOUBLE PRECISION,
		captured_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS daily_records_triple_idx
		ON daily_records (region, depot, date)`,
	`CREATE INDEX IF NOT EXISTS daily_records_unit_idx
		ON daily_records (unit)`,
}

// EnsureSchema creates the capture tables and indexes if they do not
// already exist.
func (s *PG) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
