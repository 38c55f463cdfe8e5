package capture

// derive.go is the record derivation engine: the rules that turn one raw
// odometer/liter row into a validated, priced, limit-annotated daily
// record.
//
// Rules apply in a fixed order and short-circuit on the first failure:
//
//  1. Parse ending odometer. Blank → row skipped. Unparseable or negative
//     → invalid-odometer.
//  2. Ending below starting → odometer-regression.
//  3. Parse the four volumes (blank/unparseable → 0) and total them.
//  4. No fuel and no movement → skipped (nothing was entered).
//  5. No fuel but movement → missing-fuel-volume (a vehicle that moved
//     must have logged fuel).
//  6. Distance above the plausibility threshold → distance-implausible
//     (guards against fat-fingered odometer entries).
//  7-10. Derive costs, totals, efficiency, attach limits, accept.
//
// DeriveRow is pure: no I/O, no clock reads; the capture timestamp is an
// input.

import (
	"fmt"
	"time"
)

// DeriveParams carries the per-submission inputs shared by every row.
type DeriveParams struct {
	Prices     Prices
	Limits     LimitTable
	MaxDayKm   float64 // maximum plausible daily distance
	CapturedAt string  // time of day, HH:MM:SS
}

// DeriveRow classifies one vehicle row and, when accepted, produces the
// fully derived DailyRecord. startKm must already be resolved via
// ResolveStartKm.
func DeriveRow(in RowInput, veh Vehicle, startKm float64, date time.Time, p DeriveParams) RowResult {
	res := RowResult{Unit: veh.Unit}

	raw := CleanNumber(in.EndKm)
	if raw == "" {
		res.Outcome = OutcomeSkipped
		return res
	}

	endKm, ok := ParseOdometer(in.EndKm)
	if !ok {
		res.Outcome = OutcomeRejected
		res.Reason = ReasonInvalidOdometer
		res.Detail = fmt.Sprintf("ending odometer %q is not a non-negative number", in.EndKm)
		return res
	}

	if endKm < startKm {
		res.Outcome = OutcomeRejected
		res.Reason = ReasonOdometerRegression
		res.Detail = fmt.Sprintf("ending odometer %.1f is below starting odometer %.1f", endKm, startKm)
		return res
	}
	distance := endKm - startKm

	var liters [numFuelTypes]float64
	var totalLiters float64
	for _, ft := range FuelTypes {
		liters[ft] = ParseLiters(in.Liters[ft])
		totalLiters += liters[ft]
	}

	if totalLiters <= 0 {
		if distance == 0 {
			// Untouched row: no fuel entered, no movement.
			res.Outcome = OutcomeSkipped
			return res
		}
		res.Outcome = OutcomeRejected
		res.Reason = ReasonMissingFuelVolume
		res.Detail = fmt.Sprintf("vehicle traveled %.1f km but no fuel volume was logged", distance)
		return res
	}

	if p.MaxDayKm > 0 && distance > p.MaxDayKm {
		res.Outcome = OutcomeRejected
		res.Reason = ReasonDistanceImplausible
		res.Detail = fmt.Sprintf("distance %.1f km exceeds the daily maximum of %.0f km", distance, p.MaxDayKm)
		return res
	}

	rec := &DailyRecord{
		Date:        date,
		Region:      veh.Region,
		Depot:       veh.Depot,
		Unit:        veh.Unit,
		VehicleType: veh.VehicleType,
		Model:       veh.Model,
		StartKm:     startKm,
		EndKm:       endKm,
		DistanceKm:  distance,
		Liters:      liters,
		TotalLiters: totalLiters,
		CapturedAt:  p.CapturedAt,
	}

	for _, ft := range FuelTypes {
		rec.Costs[ft] = liters[ft] * p.Prices[ft]
		rec.TotalCost += rec.Costs[ft]
	}
	rec.Efficiency = distance / totalLiters

	if lim, ok := p.Limits[MakeLimitKey(veh.Region, veh.VehicleType, veh.Model)]; ok {
		if lim.Lower > 0 {
			lower := lim.Lower
			rec.LowerLimit = &lower
		}
		if lim.Upper > 0 {
			upper := lim.Upper
			rec.UpperLimit = &upper
		}
	}

	res.Outcome = OutcomeAccepted
	res.Record = rec
	return res
}

// DeriveSubmission classifies every input row against the catalog and
// history snapshot. A rejected row is excluded from the accepted set but
// never voids its siblings; all outcomes are collected so the operator
// can fix the whole batch in one pass.
//
// catalog maps unit code to its catalog entry for the selected depot;
// rows naming a unit outside the catalog are rejected as unknown-unit.
func DeriveSubmission(rows []RowInput, catalog map[string]Vehicle, history map[string]float64, date time.Time, p DeriveParams) []RowResult {
	results := make([]RowResult, 0, len(rows))
	for _, in := range rows {
		veh, ok := catalog[in.Unit]
		if !ok {
			results = append(results, RowResult{
				Unit:    in.Unit,
				Outcome: OutcomeRejected,
				Reason:  ReasonUnknownUnit,
				Detail:  fmt.Sprintf("unit %q is not in the catalog for this depot", in.Unit),
			})
			continue
		}
		startKm := ResolveStartKm(veh.Unit, history, veh.BaselineKm)
		results = append(results, DeriveRow(in, veh, startKm, date, p))
	}
	return results
}

// AcceptedRecords extracts the derived records from the accepted rows,
// preserving submission order.
func AcceptedRecords(results []RowResult) []DailyRecord {
	var recs []DailyRecord
	for _, r := range results {
		if r.Outcome == OutcomeAccepted && r.Record != nil {
			recs = append(recs, *r.Record)
		}
	}
	return recs
}
