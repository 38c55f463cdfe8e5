package capture

import (
	"time"
)

// FuelType identifies one of the four fuel products a vehicle can log.
type FuelType int

const (
	FuelRegular FuelType = iota // regular gasoline
	FuelMid                     // mid-grade gasoline
	FuelPremium                 // premium gasoline
	FuelDiesel                  // diesel
	numFuelTypes
)

// FuelTypes lists all fuel types in their canonical column order.
var FuelTypes = [numFuelTypes]FuelType{FuelRegular, FuelMid, FuelPremium, FuelDiesel}

// String returns the canonical name used in column headers and JSON.
func (f FuelType) String() string {
	switch f {
	case FuelRegular:
		return "regular"
	case FuelMid:
		return "mid"
	case FuelPremium:
		return "premium"
	case FuelDiesel:
		return "diesel"
	default:
		return "unknown"
	}
}

// Prices holds the per-liter unit price for each fuel type. Prices are
// shared across all rows in one submission.
type Prices [numFuelTypes]float64

// Valid reports whether every unit price is strictly positive. Cost
// derivation is meaningless without prices, so a submission with any
// non-positive price is refused before row evaluation.
func (p Prices) Valid() bool {
	for _, v := range p {
		if v <= 0 {
			return false
		}
	}
	return true
}

// Vehicle is one catalog entry. The catalog is defined externally and is
// immutable from the engine's perspective within a session.
type Vehicle struct {
	Region      string
	Depot       string
	Unit        string // unique within a depot
	VehicleType string
	Model       string
	BaselineKm  float64 // cold-start odometer for vehicles with no history
}

// Limits holds the efficiency bounds for a (region, type, model) group.
// Limits annotate stored records; they never reject input.
type Limits struct {
	Lower float64
	Upper float64
}

// LimitTable maps normalized (region, type, model) keys to their bounds.
type LimitTable map[LimitKey]Limits

// RowInput is the raw operator input for one vehicle row. Fields arrive as
// strings because the form allows blanks; parsing is part of derivation.
type RowInput struct {
	Unit   string
	EndKm  string               // blank means the row was not filled in
	Liters [numFuelTypes]string // blank or unparseable means 0
}

// WorkingRow is one editable row of the capture screen, pre-filled from
// the catalog and history.
type WorkingRow struct {
	Unit        string  `json:"unit"`
	VehicleType string  `json:"vehicleType"`
	Model       string  `json:"model"`
	StartKm     float64 `json:"startKm"`
}

// WorkingSet is the editable state for one (region, depot, date) capture
// session.
type WorkingSet struct {
	Region string       `json:"region"`
	Depot  string       `json:"depot"`
	Date   time.Time    `json:"date"`
	Rows   []WorkingRow `json:"rows"`
}

// DailyRecord is the fully derived result for one accepted vehicle-day.
// Once written to the store it is immutable.
type DailyRecord struct {
	Date        time.Time
	Region      string
	Depot       string
	Unit        string
	VehicleType string
	Model       string

	StartKm    float64
	EndKm      float64
	DistanceKm float64

	Liters [numFuelTypes]float64
	Costs  [numFuelTypes]float64

	TotalLiters float64
	TotalCost   float64
	Efficiency  float64 // km per liter, DistanceKm / TotalLiters

	// Efficiency bounds looked up by (region, type, model); nil when no
	// positive bound is configured.
	UpperLimit *float64
	LowerLimit *float64

	CapturedAt string // time of day, HH:MM:SS
}

// Outcome classifies one derived row.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
	OutcomeSkipped  Outcome = "skipped"
)

// Reason identifies why a row or submission was rejected. Values are
// stable machine-readable codes; Detail on RowResult carries the
// human-readable explanation.
type Reason string

const (
	ReasonInvalidOdometer     Reason = "invalid-odometer"
	ReasonOdometerRegression  Reason = "odometer-regression"
	ReasonMissingFuelVolume   Reason = "missing-fuel-volume"
	ReasonDistanceImplausible Reason = "distance-implausible"
	ReasonMissingPrices       Reason = "missing-prices"
	ReasonUnknownUnit         Reason = "unknown-unit"
)

// RowResult is the classified outcome for one input row.
type RowResult struct {
	Unit    string
	Outcome Outcome
	Reason  Reason // empty unless Outcome is OutcomeRejected
	Detail  string // human-readable explanation for rejected rows

	// Record is the derived daily record; set only for accepted rows.
	Record *DailyRecord
}

// Submission is one complete capture attempt for a depot-day.
type Submission struct {
	Region string // raw request value, normalized during processing
	Depot  string
	Date   time.Time
	Prices Prices
	Rows   []RowInput
}

// MirrorStatus reports the outcome of the best-effort mirror write.
// Mirror failures never roll back or block the primary commit; they are
// surfaced as a secondary warning.
type MirrorStatus struct {
	OK       bool   `json:"ok"`
	Appended int    `json:"appended"`
	Message  string `json:"message,omitempty"`
}

// SubmissionResult is the end-to-end outcome of Submit. All row-level
// issues are collected here so the operator can fix a whole batch in one
// pass.
type SubmissionResult struct {
	SubmissionID string       `json:"submissionId"`
	Region       string       `json:"region"`
	Depot        string       `json:"depot"`
	Date         time.Time    `json:"date"`
	Rows         []RowResult  `json:"-"`
	Stored       int          `json:"stored"`
	Skipped      int          `json:"skipped"`
	Rejected     int          `json:"rejected"`
	Mirror       MirrorStatus `json:"mirror"`
}
