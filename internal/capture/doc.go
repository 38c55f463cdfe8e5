// Package capture provides the business logic for daily fuel-consumption
// capture. This package has no HTTP or database dependencies in its
// derivation core and can be driven by any frontend.
//
// The flow mirrors how a depot operator works through a capture day:
//
//  1. WorkingSet builds one editable row per catalog vehicle for the
//     selected region and depot, with the starting odometer resolved from
//     history (last recorded ending value) or the catalog baseline.
//  2. The operator fills in ending odometer readings and per-fuel-type
//     liters, then submits the batch together with the day's unit prices.
//  3. Submit classifies every row as accepted, rejected (with a reason),
//     or skipped, persists the accepted rows as a single batch, and
//     mirrors them best-effort to a secondary workbook.
//
// Derivation itself (DeriveRow, DeriveSubmission) is pure: it performs no
// I/O and is a function of its inputs only. All storage and mirroring
// happens in Service after every row in a submission has been classified.
package capture
