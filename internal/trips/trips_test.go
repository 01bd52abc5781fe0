package trips

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/chachabrian/mooveit-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

type memStore struct {
	mu    sync.Mutex
	trips map[string]models.Trip
}

func (m *memStore) Create(ctx context.Context, trip *models.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = *trip
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &trip, nil
}

func (m *memStore) Transition(ctx context.Context, trip *models.Trip, version int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.trips[trip.ID]
	if !ok || stored.StatusVersion != version {
		return ErrConflict
	}
	updated := *trip
	updated.StatusVersion = version + 1
	m.trips[trip.ID] = updated
	return nil
}

func (m *memStore) ListByPassenger(ctx context.Context, passengerID string) ([]models.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Trip
	for _, trip := range m.trips {
		if trip.PassengerID == passengerID {
			out = append(out, trip)
		}
	}
	return out, nil
}

func (m *memStore) CountCompletedByDriver(ctx context.Context, driverID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, trip := range m.trips {
		if trip.Status == models.TripStatusCompleted && trip.DriverID != nil && *trip.DriverID == driverID {
			n++
		}
	}
	return n, nil
}

// memTransactor restores the trip table when the unit of work fails.
type memTransactor struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTransactor) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.store.mu.Lock()
	snapshot := maps.Clone(t.store.trips)
	t.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		t.store.mu.Lock()
		t.store.trips = snapshot
		t.store.mu.Unlock()
		return err
	}
	return nil
}

type fakePricer struct {
	amount decimal.Decimal
	err    error
}

func (p fakePricer) PriceFor(ctx context.Context, distanceKm float64) (pricing.Quote, error) {
	if p.err != nil {
		return pricing.Quote{}, p.err
	}
	return pricing.Quote{Amount: p.amount.Mul(decimal.NewFromFloat(distanceKm)), Source: pricing.SourceRange}, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	locked  map[string]bool
	settled []string
	err     error
}

func (l *fakeLedger) IsLocked(ctx context.Context, driverID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.locked[driverID], nil
}

func (l *fakeLedger) RecordTripCompletion(ctx context.Context, driverID, tripID string, price decimal.Decimal) (ledger.Completion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return ledger.Completion{}, l.err
	}
	l.settled = append(l.settled, tripID)
	commission := price.Mul(decimal.NewFromInt(20)).Div(decimal.NewFromInt(100))
	return ledger.Completion{CommissionAmount: commission, NetEarning: price.Sub(commission)}, nil
}

type fakeDrivers map[string]bool

func (d fakeDrivers) DriverActive(ctx context.Context, driverID string) (bool, error) {
	active, ok := d[driverID]
	if !ok {
		return false, ledger.ErrDriverNotFound
	}
	return active, nil
}

type recordingStatus struct {
	mu       sync.Mutex
	statuses []models.TripStatus
}

func (r *recordingStatus) TripStatusChanged(ctx context.Context, trip models.Trip) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, trip.Status)
}

type fixture struct {
	svc    *Service
	store  *memStore
	ledger *fakeLedger
	status *recordingStatus
}

func newFixture() *fixture {
	store := &memStore{trips: make(map[string]models.Trip)}
	l := &fakeLedger{locked: make(map[string]bool)}
	status := &recordingStatus{}
	drivers := fakeDrivers{"driver-1": true, "driver-2": true, "driver-idle": false}
	svc := NewService(store, fakePricer{amount: decimal.NewFromInt(100)}, l, drivers,
		&memTransactor{store: store}, status, logger.Discard())
	return &fixture{svc: svc, store: store, ledger: l, status: status}
}

func (f *fixture) inProgressTrip(t *testing.T) *models.Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := f.svc.Request(ctx, RequestInput{PassengerID: "passenger-1", Origin: "A", Destination: "B", DistanceKm: 3})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if _, err := f.svc.Accept(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	started, err := f.svc.Start(ctx, trip.ID, "driver-1")
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return started
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.TripStatus
		want     bool
	}{
		{models.TripStatusPending, models.TripStatusAccepted, true},
		{models.TripStatusPending, models.TripStatusCancelled, true},
		{models.TripStatusPending, models.TripStatusCompleted, false},
		{models.TripStatusAccepted, models.TripStatusInProgress, true},
		{models.TripStatusAccepted, models.TripStatusCancelled, true},
		{models.TripStatusInProgress, models.TripStatusCompleted, true},
		{models.TripStatusInProgress, models.TripStatusCancelled, false},
		{models.TripStatusCompleted, models.TripStatusCompleted, false},
		{models.TripStatusCancelled, models.TripStatusAccepted, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestRequestPricesTripOnce(t *testing.T) {
	f := newFixture()
	trip, err := f.svc.Request(context.Background(), RequestInput{PassengerID: "passenger-1", DistanceKm: 3})
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}
	if !trip.Price.Equal(decimal.NewFromInt(300)) || trip.Status != models.TripStatusPending {
		t.Errorf("trip = %+v", trip)
	}
}

func TestRequestRejectsBadDistance(t *testing.T) {
	f := newFixture()
	for _, km := range []float64{0, -2} {
		if _, err := f.svc.Request(context.Background(), RequestInput{PassengerID: "p", DistanceKm: km}); !errors.Is(err, ErrInvalidDistance) {
			t.Errorf("Request(%g) error = %v, want ErrInvalidDistance", km, err)
		}
	}
}

func TestRequestPropagatesPricingError(t *testing.T) {
	f := newFixture()
	gap := &pricing.NoApplicableRangeError{DistanceKm: 1, LowestMinKm: 2}
	f.svc.pricer = fakePricer{err: gap}
	_, err := f.svc.Request(context.Background(), RequestInput{PassengerID: "p", DistanceKm: 1})
	var got *pricing.NoApplicableRangeError
	if !errors.As(err, &got) {
		t.Fatalf("Request() error = %v, want *NoApplicableRangeError", err)
	}
	if len(f.store.trips) != 0 {
		t.Error("unpriced trip stored")
	}
}

func TestAcceptGates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip, _ := f.svc.Request(ctx, RequestInput{PassengerID: "passenger-1", DistanceKm: 2})

	f.ledger.locked["driver-2"] = true
	if _, err := f.svc.Accept(ctx, trip.ID, "driver-2"); !errors.Is(err, ErrDriverLocked) {
		t.Errorf("locked Accept() error = %v, want ErrDriverLocked", err)
	}
	if _, err := f.svc.Accept(ctx, trip.ID, "driver-idle"); !errors.Is(err, ErrDriverInactive) {
		t.Errorf("inactive Accept() error = %v, want ErrDriverInactive", err)
	}
	if _, err := f.svc.Accept(ctx, trip.ID, "ghost"); !errors.Is(err, ledger.ErrDriverNotFound) {
		t.Errorf("unknown Accept() error = %v, want ErrDriverNotFound", err)
	}

	accepted, err := f.svc.Accept(ctx, trip.ID, "driver-1")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if accepted.DriverID == nil || *accepted.DriverID != "driver-1" || accepted.AcceptedAt == nil {
		t.Errorf("accepted trip = %+v", accepted)
	}

	var te *TransitionError
	f.ledger.locked["driver-2"] = false
	if _, err = f.svc.Accept(ctx, trip.ID, "driver-2"); !errors.As(err, &te) {
		t.Errorf("second Accept() error = %v, want *TransitionError", err)
	}
}

func TestStartRequiresAssignedDriver(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip, _ := f.svc.Request(ctx, RequestInput{PassengerID: "passenger-1", DistanceKm: 2})
	if _, err := f.svc.Accept(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Start(ctx, trip.ID, "driver-2"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("Start() by other driver error = %v, want ErrNotParticipant", err)
	}
}

func TestCompleteSettlesLedger(t *testing.T) {
	f := newFixture()
	trip := f.inProgressTrip(t)

	got, err := f.svc.Complete(context.Background(), trip.ID, "driver-1")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.Trip.Status != models.TripStatusCompleted || got.Trip.CompletedAt == nil {
		t.Errorf("trip = %+v", got.Trip)
	}
	if !got.FinancialUpdate.CommissionAmount.Equal(decimal.NewFromInt(60)) || !got.FinancialUpdate.NetEarning.Equal(decimal.NewFromInt(240)) {
		t.Errorf("financial update = %+v", got.FinancialUpdate)
	}
	if len(f.ledger.settled) != 1 || f.ledger.settled[0] != trip.ID {
		t.Errorf("settled = %v", f.ledger.settled)
	}
	if n, _ := f.svc.CompletedCount(context.Background(), "driver-1"); n != 1 {
		t.Errorf("CompletedCount() = %d, want 1", n)
	}

	if _, err := f.svc.Complete(context.Background(), trip.ID, "driver-1"); err == nil {
		t.Fatal("second Complete() succeeded")
	}
	if len(f.ledger.settled) != 1 {
		t.Errorf("trip settled %d times", len(f.ledger.settled))
	}

	want := []models.TripStatus{models.TripStatusAccepted, models.TripStatusInProgress, models.TripStatusCompleted}
	if len(f.status.statuses) != len(want) {
		t.Fatalf("status events = %v, want %v", f.status.statuses, want)
	}
}

func TestCompleteRollsBackWhenLedgerFails(t *testing.T) {
	f := newFixture()
	trip := f.inProgressTrip(t)

	f.ledger.err = errors.New("ledger unavailable")
	if _, err := f.svc.Complete(context.Background(), trip.ID, "driver-1"); err == nil {
		t.Fatal("Complete() succeeded with failing ledger")
	}
	stored, _ := f.store.Get(context.Background(), trip.ID)
	if stored.Status != models.TripStatusInProgress {
		t.Fatalf("status = %s after failed completion, want in_progress", stored.Status)
	}

	f.ledger.err = nil
	if _, err := f.svc.Complete(context.Background(), trip.ID, "driver-1"); err != nil {
		t.Fatalf("retry Complete() error = %v", err)
	}
}

func TestConcurrentCompleteSettlesOnce(t *testing.T) {
	f := newFixture()
	trip := f.inProgressTrip(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Complete(context.Background(), trip.ID, "driver-1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Errorf("%d completions succeeded, want 1", succeeded)
	}
	if len(f.ledger.settled) != 1 {
		t.Errorf("ledger settled %d times, want 1", len(f.ledger.settled))
	}
}

func TestTransitionConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip, _ := f.svc.Request(ctx, RequestInput{PassengerID: "passenger-1", DistanceKm: 2})

	stale := *trip
	if _, err := f.svc.Accept(ctx, trip.ID, "driver-1"); err != nil {
		t.Fatal(err)
	}
	stale.Status = models.TripStatusCancelled
	if err := f.store.Transition(ctx, &stale, stale.StatusVersion); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale Transition() error = %v, want ErrConflict", err)
	}
}

func TestCancel(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	trip, _ := f.svc.Request(ctx, RequestInput{PassengerID: "passenger-1", DistanceKm: 2})

	if _, err := f.svc.Cancel(ctx, trip.ID, "passenger-2"); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("Cancel() by stranger error = %v, want ErrNotParticipant", err)
	}
	cancelled, err := f.svc.Cancel(ctx, trip.ID, "passenger-1")
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.Status != models.TripStatusCancelled || cancelled.CancelledAt == nil {
		t.Errorf("trip = %+v", cancelled)
	}

	completed := f.inProgressTrip(t)
	var te *TransitionError
	if _, err := f.svc.Cancel(ctx, completed.ID, "passenger-1"); !errors.As(err, &te) {
		t.Errorf("Cancel() in progress error = %v, want *TransitionError", err)
	}
}
