// Package store persists capture data in PostgreSQL.
//
// It implements the capture.Store collaborator: catalog, history and
// limit reads, the depot-day duplicate-check query, and the batch record
// write. Records are written with the COPY protocol inside a single
// transaction so a submission commits atomically or not at all.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tecfleet/fuelcapture/internal/capture"
)

// PG is the PostgreSQL-backed implementation of capture.Store.
type PG struct {
	pool *pgxpool.Pool
}

// New creates a PG store over the given pool.
func New(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Catalog returns every vehicle definition, in stable region/depot/unit
// order so the working set renders the same way every session.
func (s *PG) Catalog(ctx context.Context) ([]capture.Vehicle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT region, depot, unit, vehicle_type, model, COALESCE(baseline_km, 0)
		FROM unit_catalog
		ORDER BY region, depot, unit
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var catalog []capture.Vehicle
	for rows.Next() {
		var v capture.Vehicle
		if err := rows.Scan(&v.Region, &v.Depot, &v.Unit, &v.VehicleType, &v.Model, &v.BaselineKm); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		catalog = append(catalog, v)
	}
	return catalog, rows.Err()
}

// History returns, per unit, the maximum ending odometer across all
// stored daily records.
func (s *PG) History(ctx context.Context) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT unit, MAX(end_km)
		FROM daily_records
		GROUP BY unit
	`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := make(map[string]float64)
	for rows.Next() {
		var unit string
		var km pgtype.Float8
		if err := rows.Scan(&unit, &km); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if km.Valid {
			history[unit] = km.Float64
		}
	}
	return history, rows.Err()
}

// Limits returns the efficiency bounds keyed by normalized
// (region, type, model). Null bounds load as zero, which the engine
// treats as "not configured".
func (s *PG) Limits(ctx context.Context) (capture.LimitTable, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT region, vehicle_type, model, lower_limit, upper_limit
		FROM efficiency_limits
	`)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	limits := make(capture.LimitTable)
	for rows.Next() {
		var region, vehicleType, model string
		var lower, upper pgtype.Float8
		if err := rows.Scan(&region, &vehicleType, &model, &lower, &upper); err != nil {
			return nil, fmt.Errorf("scan limits row: %w", err)
		}
		limits[capture.MakeLimitKey(region, vehicleType, model)] = capture.Limits{
			Lower: lower.Float64,
			Upper: upper.Float64,
		}
	}
	return limits, rows.Err()
}

// CountRecords returns how many records exist for the exact
// (region, depot, date) triple. This backs the duplicate guard.
func (s *PG) CountRecords(ctx context.Context, region, depot string, date time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM daily_records
		WHERE region = $1 AND depot = $2 AND date = $3
	`, region, depot, date).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// CapturedUnits returns the distinct units already stored for the triple.
func (s *PG) CapturedUnits(ctx context.Context, region, depot string, date time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT unit
		FROM daily_records
		WHERE region = $1 AND depot = $2 AND date = $3
	`, region, depot, date)
	if err != nil {
		return nil, fmt.Errorf("query captured units: %w", err)
	}
	defer rows.Close()

	var units []string
	for rows.Next() {
		var unit string
		if err := rows.Scan(&unit); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// recordColumns is the fixed column order for daily records. The mirror
// sink serializes the same logical order; keep the two in sync.
var recordColumns = []string{
	"date", "region", "depot", "unit", "vehicle_type", "model",
	"start_km", "end_km", "distance_km",
	"regular_l", "regular_cost",
	"mid_l", "mid_cost",
	"premium_l", "premium_cost",
	"diesel_l", "diesel_cost",
	"total_liters", "total_cost", "efficiency_kml",
	"upper_limit", "lower_limit",
	"captured_at",
}

// recordRow flattens a record into recordColumns order. Nil limit
// pointers become SQL NULLs.
func recordRow(r capture.DailyRecord) []any {
	return []any{
		r.Date, r.Region, r.Depot, r.Unit, r.VehicleType, r.Model,
		r.StartKm, r.EndKm, r.DistanceKm,
		r.Liters[capture.FuelRegular], r.Costs[capture.FuelRegular],
		r.Liters[capture.FuelMid], r.Costs[capture.FuelMid],
		r.Liters[capture.FuelPremium], r.Costs[capture.FuelPremium],
		r.Liters[capture.FuelDiesel], r.Costs[capture.FuelDiesel],
		r.TotalLiters, r.TotalCost, r.Efficiency,
		r.UpperLimit, r.LowerLimit,
		r.CapturedAt,
	}
}

// InsertRecords writes the batch atomically using COPY.
func (s *PG) InsertRecords(ctx context.Context, records []capture.DailyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := tx.CopyFrom(ctx,
		pgx.Identifier{"daily_records"},
		recordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			return recordRow(records[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy records: %w", err)
	}
	if n != int64(len(records)) {
		return fmt.Errorf("copy records: wrote %d of %d rows", n, len(records))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
