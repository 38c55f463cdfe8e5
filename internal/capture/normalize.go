package capture

// normalize.go provides key normalization for catalog, history and limit
// lookups.
//
// Catalog and limit data come from spreadsheets maintained by hand, so
// region, type and model values arrive with inconsistent casing and stray
// whitespace. Both sides of every join (building the lookup maps and
// querying them) go through NormalizeKey so mismatched source data still
// joins correctly.

import "strings"

// NormalizeKey produces the canonical lookup form of a raw catalog value:
// surrounding whitespace trimmed, uppercased, with the literal "None"
// (a null leaked into text columns upstream) treated as empty.
// Normalization is idempotent and never fails on arbitrary input.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "none") {
		return ""
	}
	return strings.ToUpper(s)
}

// LimitKey addresses one efficiency-limit group. All three parts are
// normalized; build keys only through MakeLimitKey.
type LimitKey struct {
	Region      string
	VehicleType string
	Model       string
}

// MakeLimitKey builds a normalized limit lookup key.
func MakeLimitKey(region, vehicleType, model string) LimitKey {
	return LimitKey{
		Region:      NormalizeKey(region),
		VehicleType: NormalizeKey(vehicleType),
		Model:       NormalizeKey(model),
	}
}

// ParseRegionParam decodes a region as it arrives in a capture link.
// Links encode spaces as underscores ("?region=REGION_SUR"), so
// underscores become spaces before normalization.
func ParseRegionParam(raw string) string {
	return NormalizeKey(strings.ReplaceAll(raw, "_", " "))
}
