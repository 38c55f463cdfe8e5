// Package mirror appends accepted daily records to a secondary xlsx
// workbook for external reporting.
//
// The workbook is non-authoritative: the database commit has already
// succeeded by the time Append runs, so every failure here is converted
// into a MirrorStatus value instead of an error. Nothing in this package
// can roll back or block the primary write.
package mirror

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/tecfleet/fuelcapture/internal/capture"
)

// header is the fixed logical column order, matching the store's
// daily_records columns.
var header = []string{
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

// Workbook mirrors records into one sheet of an xlsx file, creating the
// file and header row on first use.
type Workbook struct {
	path  string
	sheet string
}

// NewWorkbook creates a mirror over the given workbook path and sheet
// name.
func NewWorkbook(path, sheet string) *Workbook {
	return &Workbook{path: path, sheet: sheet}
}

// Append adds one row per record to the sheet. It reports its outcome as
// a value; failures leave the workbook file untouched.
func (w *Workbook) Append(ctx context.Context, records []capture.DailyRecord) capture.MirrorStatus {
	if len(records) == 0 {
		return capture.MirrorStatus{OK: true}
	}
	if err := ctx.Err(); err != nil {
		return fail("mirror cancelled: %v", err)
	}

	f, created, err := w.open()
	if err != nil {
		return fail("open workbook: %v", err)
	}
	defer f.Close()

	if created {
		if err := f.SetSheetRow(w.sheet, "A1", &header); err != nil {
			return fail("write header: %v", err)
		}
	}

	rows, err := f.GetRows(w.sheet)
	if err != nil {
		return fail("read sheet %q: %v", w.sheet, err)
	}
	next := len(rows) + 1

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return fail("cell name: %v", err)
		}
		row := serializeRecord(rec)
		if err := f.SetSheetRow(w.sheet, cell, &row); err != nil {
			return fail("append row %d: %v", i+1, err)
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fail("save workbook: %v", err)
	}
	return capture.MirrorStatus{OK: true, Appended: len(records)}
}

// open loads the workbook, creating it with the target sheet when the
// file does not exist yet.
func (w *Workbook) open() (f *excelize.File, created bool, err error) {
	if _, statErr := os.Stat(w.path); os.IsNotExist(statErr) {
		f = excelize.NewFile()
		idx, err := f.NewSheet(w.sheet)
		if err != nil {
			return nil, false, err
		}
		f.SetActiveSheet(idx)
		if w.sheet != "Sheet1" {
			f.DeleteSheet("Sheet1")
		}
		return f, true, nil
	}

	f, err = excelize.OpenFile(w.path)
	if err != nil {
		return nil, false, err
	}
	if idx, _ := f.GetSheetIndex(w.sheet); idx < 0 {
		if _, err := f.NewSheet(w.sheet); err != nil {
			f.Close()
			return nil, false, err
		}
		created = true // new sheet still needs a header row
	}
	return f, created, nil
}

// serializeRecord renders one record in header order: floats rounded to
// three decimals, dates and nulls as text.
func serializeRecord(r capture.DailyRecord) []any {
	return []any{
		r.Date.Format("2006-01-02"), r.Region, r.Depot, r.Unit, r.VehicleType, r.Model,
		round3(r.StartKm), round3(r.EndKm), round3(r.DistanceKm),
		round3(r.Liters[capture.FuelRegular]), round3(r.Costs[capture.FuelRegular]),
		round3(r.Liters[capture.FuelMid]), round3(r.Costs[capture.FuelMid]),
		round3(r.Liters[capture.FuelPremium]), round3(r.Costs[capture.FuelPremium]),
		round3(r.Liters[capture.FuelDiesel]), round3(r.Costs[capture.FuelDiesel]),
		round3(r.TotalLiters), round3(r.TotalCost), round3(r.Efficiency),
		limitText(r.UpperLimit), limitText(r.LowerLimit),
		r.CapturedAt,
	}
}

// round3 rounds to three decimal places, the precision the external
// report expects.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// limitText renders a nullable limit: empty string for absent.
func limitText(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *v)
}

func fail(format string, args ...any) capture.MirrorStatus {
	return capture.MirrorStatus{OK: false, Message: fmt.Sprintf(format, args...)}
}

var _ capture.Mirror = (*Workbook)(nil)
