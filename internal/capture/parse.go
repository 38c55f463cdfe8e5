package capture

// parse.go converts raw form values into numbers.
//
// Form values carry the usual artifacts of hand-typed data: surrounding
// whitespace, thousands separators, the occasional trailing unit. Parsing
// is lenient about formatting but strict about meaning: an odometer that
// does not parse is an error, a fuel volume that does not parse is zero.

import (
	"strconv"
	"strings"
)

// CleanNumber strips formatting artifacts from a hand-typed numeric value:
// whitespace, thousands separators and surrounding quotes.
func CleanNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// ParseOdometer parses a raw ending-odometer value. The second return is
// false when the value is present but not a non-negative number. A blank
// value parses as (0, true); callers distinguish blank (row skipped) from
// zero before calling.
func ParseOdometer(s string) (float64, bool) {
	s = CleanNumber(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ParseLiters parses a raw fuel-volume value. Blank, unparseable or
// negative values count as 0; the form defaults every volume to zero and
// garbage in a volume cell means nothing was dispensed.
func ParseLiters(s string) float64 {
	s = CleanNumber(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}
