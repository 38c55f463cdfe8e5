package capture

// ResolveStartKm returns the starting odometer for a vehicle: the highest
// previously recorded ending value when one exists, otherwise the catalog
// baseline.
//
// The last recorded ending value is the true odometer position; the
// baseline is only a cold-start default for vehicles with no history yet.
// A history value of exactly 0 counts as "no history" — this conflates a
// genuine zero reading with missing data, a known simplification carried
// over from the source system.
func ResolveStartKm(unit string, history map[string]float64, baseline float64) float64 {
	if km, ok := history[unit]; ok && km > 0 {
		return km
	}
	if baseline < 0 {
		return 0
	}
	return baseline
}
