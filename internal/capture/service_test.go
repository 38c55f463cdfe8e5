package capture

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is an in-memory Store for service tests.
type fakeStore struct {
	catalog []Vehicle
	history map[string]float64
	limits  LimitTable

	records     []DailyRecord
	insertErr   error
	countErr    error
	catalogHits int
}

func (f *fakeStore) Catalog(ctx context.Context) ([]Vehicle, error) {
	f.catalogHits++
	return f.catalog, nil
}

func (f *fakeStore) History(ctx context.Context) (map[string]float64, error) {
	return f.history, nil
}

func (f *fakeStore) Limits(ctx context.Context) (LimitTable, error) {
	return f.limits, nil
}

func (f *fakeStore) CountRecords(ctx context.Context, region, depot string, date time.Time) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, r := range f.records {
		if r.Region == region && r.Depot == depot && r.Date.Equal(date) {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CapturedUnits(ctx context.Context, region, depot string, date time.Time) ([]string, error) {
	seen := map[string]bool{}
	var units []string
	for _, r := range f.records {
		if r.Region == region && r.Depot == depot && r.Date.Equal(date) && !seen[r.Unit] {
			seen[r.Unit] = true
			units = append(units, r.Unit)
		}
	}
	return units, nil
}

func (f *fakeStore) InsertRecords(ctx context.Context, records []DailyRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.records = append(f.records, records...)
	return nil
}

// fakeMirror records what was appended and can simulate failure.
type fakeMirror struct {
	appended [][]DailyRecord
	fail     bool
}

func (f *fakeMirror) Append(ctx context.Context, records []DailyRecord) MirrorStatus {
	if f.fail {
		return MirrorStatus{OK: false, Message: "sheet append failed: quota exceeded"}
	}
	f.appended = append(f.appended, records)
	return MirrorStatus{OK: true, Appended: len(records)}
}

func testStore() *fakeStore {
	return &fakeStore{
		catalog: []Vehicle{
			{Region: "Region Sur", Depot: "Merida", Unit: "U-101", VehicleType: "Pickup", Model: "NP300", BaselineKm: 1000},
			{Region: "Region Sur", Depot: "Merida", Unit: "U-102", VehicleType: "Van", Model: "Sprinter", BaselineKm: 500},
			{Region: "Region Sur", Depot: "Cancun", Unit: "U-201", VehicleType: "Pickup", Model: "NP300", BaselineKm: 0},
			{Region: "Region Norte", Depot: "Monterrey", Unit: "U-301", VehicleType: "Truck", Model: "FH16", BaselineKm: 90000},
		},
		history: map[string]float64{"U-101": 2000},
		limits: LimitTable{
			MakeLimitKey("Region Sur", "Pickup", "NP300"): {Lower: 3.5, Upper: 6.2},
		},
	}
}

func newTestService(store *fakeStore, mirror Mirror) *Service {
	now := func() time.Time {
		return time.Date(2026, 8, 14, 14, 30, 0, 0, time.UTC)
	}
	return NewService(store, mirror, Config{MaxDayKm: 1900, CacheTTL: 5 * time.Minute}, now)
}

func captureDate() time.Time {
	return time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)
}

func validSubmission() Submission {
	return Submission{
		Region: "REGION_SUR",
		Depot:  "merida",
		Date:   captureDate(),
		Prices: Prices{22.5, 23.1, 25.0, 20.0},
		Rows: []RowInput{
			{Unit: "U-101", EndKm: "2150", Liters: [numFuelTypes]string{FuelDiesel: "40"}},
			{Unit: "U-102", EndKm: "", Liters: [numFuelTypes]string{}},
		},
	}
}

func TestWorkingSet(t *testing.T) {
	store := testStore()
	svc := newTestService(store, nil)

	ws, err := svc.WorkingSet(context.Background(), "REGION_SUR", "MERIDA", captureDate())
	if err != nil {
		t.Fatalf("WorkingSet: %v", err)
	}
	if ws.Region != "Region Sur" || ws.Depot != "Merida" {
		t.Errorf("resolved (%q, %q), want catalog spelling (Region Sur, Merida)", ws.Region, ws.Depot)
	}
	if len(ws.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(ws.Rows))
	}
	if ws.Rows[0].Unit != "U-101" || ws.Rows[0].StartKm != 2000 {
		t.Errorf("row 0 = %+v, want U-101 with history start 2000", ws.Rows[0])
	}
	if ws.Rows[1].Unit != "U-102" || ws.Rows[1].StartKm != 500 {
		t.Errorf("row 1 = %+v, want U-102 with baseline start 500", ws.Rows[1])
	}
}

func TestWorkingSetErrors(t *testing.T) {
	tests := []struct {
		name    string
		region  string
		depot   string
		date    time.Time
		wantErr error
	}{
		{"unknown region", "REGION_OESTE", "Merida", captureDate(), ErrUnknownRegion},
		{"missing region", "", "Merida", captureDate(), ErrUnknownRegion},
		{"unknown depot", "REGION_SUR", "Tulum", captureDate(), ErrUnknownDepot},
		{"future date", "REGION_SUR", "Merida", captureDate().AddDate(0, 0, 1), ErrFutureDate},
	}

	svc := newTestService(testStore(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.WorkingSet(context.Background(), tt.region, tt.depot, tt.date)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubmitStoresAcceptedRows(t *testing.T) {
	store := testStore()
	mirror := &fakeMirror{}
	svc := newTestService(store, mirror)

	res, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Stored != 1 || res.Skipped != 1 || res.Rejected != 0 {
		t.Errorf("counts = stored %d skipped %d rejected %d, want 1/1/0",
			res.Stored, res.Skipped, res.Rejected)
	}
	if len(store.records) != 1 {
		t.Fatalf("store has %d records, want 1", len(store.records))
	}

	rec := store.records[0]
	if rec.Unit != "U-101" || rec.Region != "Region Sur" || rec.Depot != "Merida" {
		t.Errorf("stored record identity = %q/%q/%q", rec.Unit, rec.Region, rec.Depot)
	}
	if rec.StartKm != 2000 || rec.EndKm != 2150 || rec.DistanceKm != 150 {
		t.Errorf("odometer = (%v, %v, %v), want (2000, 2150, 150)", rec.StartKm, rec.EndKm, rec.DistanceKm)
	}
	if rec.TotalCost != 40*20.0 {
		t.Errorf("TotalCost = %v, want 800", rec.TotalCost)
	}
	if rec.LowerLimit == nil || *rec.LowerLimit != 3.5 {
		t.Errorf("LowerLimit = %v, want 3.5", rec.LowerLimit)
	}
	if rec.CapturedAt != "14:30:00" {
		t.Errorf("CapturedAt = %q, want clock time 14:30:00", rec.CapturedAt)
	}

	if !res.Mirror.OK || res.Mirror.Appended != 1 {
		t.Errorf("mirror status = %+v, want ok with 1 appended", res.Mirror)
	}
	if res.SubmissionID == "" {
		t.Error("missing submission id")
	}
}

func TestSubmitDuplicateGuard(t *testing.T) {
	store := testStore()
	svc := newTestService(store, nil)

	if _, err := svc.Submit(context.Background(), validSubmission()); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// Same depot-day again: refused before any row is evaluated.
	_, err := svc.Submit(context.Background(), validSubmission())
	if !errors.Is(err, ErrDuplicateCapture) {
		t.Fatalf("second submit err = %v, want ErrDuplicateCapture", err)
	}
	if len(store.records) != 1 {
		t.Errorf("store has %d records after duplicate attempt, want 1", len(store.records))
	}

	// A different depot on the same date is unaffected.
	other := validSubmission()
	other.Depot = "Cancun"
	other.Rows = []RowInput{{Unit: "U-201", EndKm: "120", Liters: [numFuelTypes]string{FuelRegular: "12"}}}
	if _, err := svc.Submit(context.Background(), other); err != nil {
		t.Errorf("other depot submit: %v", err)
	}
}

func TestSubmitPriceGate(t *testing.T) {
	store := testStore()
	svc := newTestService(store, nil)

	sub := validSubmission()
	sub.Prices[FuelPremium] = 0
	_, err := svc.Submit(context.Background(), sub)
	if !errors.Is(err, ErrMissingPrices) {
		t.Fatalf("err = %v, want ErrMissingPrices", err)
	}
	if len(store.records) != 0 {
		t.Errorf("store has %d records, want 0 (gate fires before row evaluation)", len(store.records))
	}
}

func TestSubmitPersistenceFailureIsFatal(t *testing.T) {
	store := testStore()
	store.insertErr = errors.New("deadlock detected")
	mirror := &fakeMirror{}
	svc := newTestService(store, mirror)

	_, err := svc.Submit(context.Background(), validSubmission())
	if err == nil || !errors.Is(err, store.insertErr) {
		t.Fatalf("err = %v, want wrapped insert error", err)
	}
	if len(mirror.appended) != 0 {
		t.Error("mirror was invoked despite persistence failure")
	}
}

func TestSubmitMirrorFailureIsNonFatal(t *testing.T) {
	store := testStore()
	mirror := &fakeMirror{fail: true}
	svc := newTestService(store, mirror)

	res, err := svc.Submit(context.Background(), validSubmission())
	if err != nil {
		t.Fatalf("Submit: %v (mirror failure must not be fatal)", err)
	}
	if res.Stored != 1 || len(store.records) != 1 {
		t.Errorf("primary commit affected by mirror failure: stored=%d records=%d", res.Stored, len(store.records))
	}
	if res.Mirror.OK || res.Mirror.Message == "" {
		t.Errorf("mirror status = %+v, want failure with message", res.Mirror)
	}
}

func TestSubmitNoStorableRows(t *testing.T) {
	store := testStore()
	mirror := &fakeMirror{}
	svc := newTestService(store, mirror)

	sub := validSubmission()
	sub.Rows = []RowInput{
		{Unit: "U-101", EndKm: ""},
		{Unit: "U-102", EndKm: "499", Liters: [numFuelTypes]string{FuelRegular: "10"}}, // regression
	}
	res, err := svc.Submit(context.Background(), sub)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Stored != 0 || res.Skipped != 1 || res.Rejected != 1 {
		t.Errorf("counts = %d/%d/%d, want 0 stored, 1 skipped, 1 rejected",
			res.Stored, res.Skipped, res.Rejected)
	}
	if len(store.records) != 0 || len(mirror.appended) != 0 {
		t.Error("nothing should be stored or mirrored")
	}
}

func TestSubmitInvalidatesHistorySnapshot(t *testing.T) {
	store := testStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	// Prime the cache.
	if _, err := svc.WorkingSet(ctx, "REGION_SUR", "MERIDA", captureDate()); err != nil {
		t.Fatalf("WorkingSet: %v", err)
	}
	hits := store.catalogHits

	if _, err := svc.Submit(ctx, validSubmission()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// The commit must invalidate the snapshot; the next load re-resolves
	// starting odometers from the store.
	store.history["U-101"] = 2150
	ws, err := svc.WorkingSet(ctx, "REGION_SUR", "CANCUN", captureDate())
	if err != nil {
		t.Fatalf("WorkingSet after submit: %v", err)
	}
	_ = ws
	if store.catalogHits <= hits {
		t.Error("snapshot was not reloaded after a successful commit")
	}
}

func TestMissingVehicles(t *testing.T) {
	store := testStore()
	svc := newTestService(store, nil)
	ctx := context.Background()

	missing, err := svc.MissingVehicles(ctx, "REGION_SUR", "Merida", captureDate())
	if err != nil {
		t.Fatalf("MissingVehicles: %v", err)
	}
	if len(missing) != 2 {
		t.Fatalf("missing = %v, want both units before capture", missing)
	}

	if _, err := svc.Submit(ctx, validSubmission()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	missing, err = svc.MissingVehicles(ctx, "REGION_SUR", "Merida", captureDate())
	if err != nil {
		t.Fatalf("MissingVehicles after capture: %v", err)
	}
	if len(missing) != 1 || missing[0] != "U-102" {
		t.Errorf("missing = %v, want [U-102] (U-101 was captured, U-102 only skipped)", missing)
	}
}
