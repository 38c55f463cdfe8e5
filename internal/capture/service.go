package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tecfleet/fuelcapture/internal/logging"
)

// Terminal session and submission errors. Handlers match these with
// errors.Is to pick response codes.
var (
	// ErrUnknownRegion means the region parameter does not match any
	// catalog region. The capture link is invalid; nothing proceeds.
	ErrUnknownRegion = errors.New("region not found in catalog")

	// ErrUnknownDepot means the depot does not exist within the region.
	ErrUnknownDepot = errors.New("depot not found in region")

	// ErrEmptyCatalog means the vehicle catalog has no rows at all.
	ErrEmptyCatalog = errors.New("vehicle catalog is empty")

	// ErrDuplicateCapture means the (region, depot, date) triple already
	// has stored records; the capture session is locked for the day.
	ErrDuplicateCapture = errors.New("capture already recorded for this depot and date")

	// ErrFutureDate means the capture date is after today.
	ErrFutureDate = errors.New("capture date is in the future")

	// ErrMissingPrices means at least one fuel unit price was not
	// strictly positive at submission time.
	ErrMissingPrices = errors.New("all four fuel unit prices must be positive")
)

// Store is the persistence collaborator: catalog, history and limit reads
// plus the duplicate-check query and the batch record write.
type Store interface {
	// Catalog returns every vehicle definition.
	Catalog(ctx context.Context) ([]Vehicle, error)

	// History returns, per unit code, the maximum recorded ending
	// odometer across all stored records.
	History(ctx context.Context) (map[string]float64, error)

	// Limits returns the efficiency bounds keyed by normalized
	// (region, type, model).
	Limits(ctx context.Context) (LimitTable, error)

	// CountRecords returns how many stored records match the exact
	// (region, depot, date) triple.
	CountRecords(ctx context.Context, region, depot string, date time.Time) (int, error)

	// CapturedUnits returns the distinct unit codes already stored for
	// the triple.
	CapturedUnits(ctx context.Context, region, depot string, date time.Time) ([]string, error)

	// InsertRecords writes the batch in one transaction. A failure means
	// nothing was committed.
	InsertRecords(ctx context.Context, records []DailyRecord) error
}

// Mirror is the secondary, best-effort sink for accepted records. Append
// reports its outcome as a value; it must never panic or matter to the
// primary commit.
type Mirror interface {
	Append(ctx context.Context, records []DailyRecord) MirrorStatus
}

// Config holds the engine's tunable policy values.
type Config struct {
	// MaxDayKm is the maximum plausible distance a vehicle can cover in
	// one day. Distances above it are rejected as fat-finger errors.
	MaxDayKm float64

	// CacheTTL bounds how long catalog/history/limits snapshots are
	// reused between loads.
	CacheTTL time.Duration
}

// Service wires the derivation engine to its collaborators and owns the
// per-session orchestration: working-set construction, the duplicate
// guard, submission processing and the missing-vehicles report.
type Service struct {
	store  Store
	mirror Mirror
	cfg    Config
	now    func() time.Time
	cache  *SnapshotCache
}

// NewService creates a Service. A nil now function defaults to time.Now;
// a nil mirror disables mirroring.
func NewService(store Store, mirror Mirror, cfg Config, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if mirror == nil {
		mirror = noopMirror{}
	}
	s := &Service{store: store, mirror: mirror, cfg: cfg, now: now}
	s.cache = NewSnapshotCache(s.loadSnapshot, cfg.CacheTTL, now)
	return s
}

// loadSnapshot reads all three reference datasets in one pass.
func (s *Service) loadSnapshot(ctx context.Context) (*Snapshot, error) {
	catalog, err := s.store.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	history, err := s.store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	limits, err := s.store.Limits(ctx)
	if err != nil {
		return nil, fmt.Errorf("read limits: %w", err)
	}
	return &Snapshot{Catalog: catalog, History: history, Limits: limits}, nil
}

// resolveRegion matches the raw region parameter against the catalog and
// returns the catalog's own spelling. The parameter arrives link-encoded
// (underscores for spaces) with arbitrary casing.
func resolveRegion(catalog []Vehicle, rawRegion string) (string, error) {
	if len(catalog) == 0 {
		return "", ErrEmptyCatalog
	}
	want := ParseRegionParam(rawRegion)
	if want == "" {
		return "", ErrUnknownRegion
	}
	for _, v := range catalog {
		if NormalizeKey(v.Region) == want {
			return v.Region, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownRegion, want)
}

// resolveDepot matches the depot within a region and returns the
// catalog's own spelling.
func resolveDepot(catalog []Vehicle, region, rawDepot string) (string, error) {
	want := NormalizeKey(rawDepot)
	for _, v := range catalog {
		if v.Region == region && NormalizeKey(v.Depot) == want {
			return v.Depot, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownDepot, rawDepot)
}

// checkDate refuses capture dates after today.
func (s *Service) checkDate(date time.Time) error {
	today := s.now()
	endOfToday := time.Date(today.Year(), today.Month(), today.Day(), 23, 59, 59, 0, today.Location())
	if date.After(endOfToday) {
		return ErrFutureDate
	}
	return nil
}

// depotCatalog indexes a region+depot's vehicles by unit code, in catalog
// order.
func depotCatalog(catalog []Vehicle, region, depot string) ([]Vehicle, map[string]Vehicle) {
	var ordered []Vehicle
	byUnit := make(map[string]Vehicle)
	for _, v := range catalog {
		if v.Region == region && v.Depot == depot {
			ordered = append(ordered, v)
			byUnit[v.Unit] = v
		}
	}
	return ordered, byUnit
}

// WorkingSet builds the editable capture screen for one depot-day: one
// row per catalog vehicle with the starting odometer resolved from
// history or baseline. It refuses locked (already captured) depot-days
// and future dates before doing any work.
func (s *Service) WorkingSet(ctx context.Context, rawRegion, rawDepot string, date time.Time) (*WorkingSet, error) {
	if err := s.checkDate(date); err != nil {
		return nil, err
	}

	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	region, err := resolveRegion(snap.Catalog, rawRegion)
	if err != nil {
		return nil, err
	}
	depot, err := resolveDepot(snap.Catalog, region, rawDepot)
	if err != nil {
		return nil, err
	}

	if err := s.guardDuplicate(ctx, region, depot, date); err != nil {
		return nil, err
	}

	vehicles, _ := depotCatalog(snap.Catalog, region, depot)
	ws := &WorkingSet{Region: region, Depot: depot, Date: date}
	for _, v := range vehicles {
		ws.Rows = append(ws.Rows, WorkingRow{
			Unit:        v.Unit,
			VehicleType: v.VehicleType,
			Model:       v.Model,
			StartKm:     ResolveStartKm(v.Unit, snap.History, v.BaselineKm),
		})
	}
	return ws, nil
}

// guardDuplicate is the depot-day idempotency barrier: once any record
// exists for the triple, further captures are refused. Coarse by design —
// it does not track which vehicles were captured, and two simultaneous
// first submissions can both pass (accepted race window).
func (s *Service) guardDuplicate(ctx context.Context, region, depot string, date time.Time) error {
	n, err := s.store.CountRecords(ctx, region, depot, date)
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}
	if n > 0 {
		return ErrDuplicateCapture
	}
	return nil
}

// Submit processes one complete capture attempt: duplicate guard, price
// gate, per-row derivation, the fatal persistence write, then the
// best-effort mirror. Row-level problems never abort the submission;
// they are collected on the result.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmissionResult, error) {
	log := logging.FromContext(ctx)

	if err := s.checkDate(sub.Date); err != nil {
		return nil, err
	}

	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	region, err := resolveRegion(snap.Catalog, sub.Region)
	if err != nil {
		return nil, err
	}
	depot, err := resolveDepot(snap.Catalog, region, sub.Depot)
	if err != nil {
		return nil, err
	}

	if err := s.guardDuplicate(ctx, region, depot, sub.Date); err != nil {
		return nil, err
	}

	// Submission gate: cost derivation is meaningless without prices, so
	// refuse before evaluating any row.
	if !sub.Prices.Valid() {
		return nil, ErrMissingPrices
	}

	_, byUnit := depotCatalog(snap.Catalog, region, depot)
	params := DeriveParams{
		Prices:     sub.Prices,
		Limits:     snap.Limits,
		MaxDayKm:   s.cfg.MaxDayKm,
		CapturedAt: s.now().Format("15:04:05"),
	}
	results := DeriveSubmission(sub.Rows, byUnit, snap.History, sub.Date, params)

	res := &SubmissionResult{
		SubmissionID: uuid.NewString(),
		Region:       region,
		Depot:        depot,
		Date:         sub.Date,
		Rows:         results,
	}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSkipped:
			res.Skipped++
		case OutcomeRejected:
			res.Rejected++
		}
	}

	accepted := AcceptedRecords(results)
	if len(accepted) == 0 {
		log.Info("submission had no storable rows",
			"submission_id", res.SubmissionID,
			"region", region, "depot", depot,
			"skipped", res.Skipped, "rejected", res.Rejected,
		)
		res.Mirror = MirrorStatus{OK: true}
		return res, nil
	}

	if err := s.store.InsertRecords(ctx, accepted); err != nil {
		return nil, fmt.Errorf("store records: %w", err)
	}
	res.Stored = len(accepted)

	// The history snapshot now lags the rows just written; drop it so the
	// next working set resolves starting odometers from fresh data.
	s.cache.Invalidate()

	log.Info("submission stored",
		"submission_id", res.SubmissionID,
		"region", region, "depot", depot,
		"stored", res.Stored, "skipped", res.Skipped, "rejected", res.Rejected,
	)

	// Mirroring is strictly best-effort: the primary commit already
	// succeeded, so a mirror failure is only a warning on the result.
	res.Mirror = s.mirror.Append(ctx, accepted)
	if !res.Mirror.OK {
		log.Warn("mirror append failed",
			"submission_id", res.SubmissionID,
			"message", res.Mirror.Message,
		)
	}

	return res, nil
}

// MissingVehicles reports which catalog vehicles of a depot have no
// stored record for the date. Operator visibility only; it never unlocks
// re-capture.
func (s *Service) MissingVehicles(ctx context.Context, rawRegion, rawDepot string, date time.Time) ([]string, error) {
	snap, err := s.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	region, err := resolveRegion(snap.Catalog, rawRegion)
	if err != nil {
		return nil, err
	}
	depot, err := resolveDepot(snap.Catalog, region, rawDepot)
	if err != nil {
		return nil, err
	}

	captured, err := s.store.CapturedUnits(ctx, region, depot, date)
	if err != nil {
		return nil, fmt.Errorf("read captured units: %w", err)
	}
	seen := make(map[string]bool, len(captured))
	for _, u := range captured {
		seen[u] = true
	}

	vehicles, _ := depotCatalog(snap.Catalog, region, depot)
	missing := make([]string, 0)
	for _, v := range vehicles {
		if !seen[v.Unit] {
			missing = append(missing, v.Unit)
		}
	}
	return missing, nil
}

// InvalidateCache drops the reference-data snapshot. Exposed for
// operational use when catalog or limit rows change out of band.
func (s *Service) InvalidateCache() {
	s.cache.Invalidate()
}

// noopMirror is the Mirror used when mirroring is disabled.
type noopMirror struct{}

func (noopMirror) Append(context.Context, []DailyRecord) MirrorStatus {
	return MirrorStatus{OK: true}
}
