package fares

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/logger"
	"github.com/shopspring/decimal"
)

type memStore struct {
	writeMu sync.Mutex
	mu      sync.Mutex
	ranges  map[string]models.FareRange
}

func newMemStore() *memStore {
	return &memStore{ranges: make(map[string]models.FareRange)}
}

func (m *memStore) List(ctx context.Context) ([]models.FareRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.FareRange, 0, len(m.ranges))
	for _, r := range m.ranges {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*models.FareRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.ranges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *memStore) Insert(ctx context.Context, r *models.FareRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ranges[r.ID] = *r
	return nil
}

func (m *memStore) Save(ctx context.Context, r *models.FareRange) error {
	return m.Insert(ctx, r)
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ranges[id]; !ok {
		return ErrNotFound
	}
	delete(m.ranges, id)
	return nil
}

func (m *memStore) WithWriteLock(ctx context.Context, fn func(ctx context.Context) error) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	return fn(ctx)
}

func newTestService() (*Service, *memStore) {
	store := newMemStore()
	return NewService(store, logger.Discard()), store
}

func rate(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b models.FareRange
		want bool
	}{
		{"disjoint", models.FareRange{MinKm: 0, MaxKm: 5}, models.FareRange{MinKm: 6, MaxKm: 10}, false},
		{"touching endpoints", models.FareRange{MinKm: 0, MaxKm: 5}, models.FareRange{MinKm: 5, MaxKm: 10}, true},
		{"partial", models.FareRange{MinKm: 5, MaxKm: 15}, models.FareRange{MinKm: 10, MaxKm: 20}, true},
		{"contained", models.FareRange{MinKm: 0, MaxKm: 100}, models.FareRange{MinKm: 10, MaxKm: 20}, true},
		{"fractional gap", models.FareRange{MinKm: 0, MaxKm: 5}, models.FareRange{MinKm: 5.01, MaxKm: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(tt.a, tt.b); got != tt.want {
				t.Errorf("Overlaps(a, b) = %v, want %v", got, tt.want)
			}
			if got := Overlaps(tt.b, tt.a); got != tt.want {
				t.Errorf("Overlaps(b, a) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateRejectsInvalidInterval(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	tests := []struct {
		name     string
		min, max float64
		rate     decimal.Decimal
		want     error
	}{
		{"min equals max", 5, 5, rate(10), ErrInvalidRange},
		{"min above max", 10, 5, rate(10), ErrInvalidRange},
		{"negative min", -1, 5, rate(10), ErrInvalidRange},
		{"negative rate", 0, 5, rate(-1), ErrInvalidRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, CreateInput{MinKm: tt.min, MaxKm: tt.max, RatePerKm: tt.rate})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateRejectsOverlap(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateInput{MinKm: 5, MaxKm: 15, RatePerKm: rate(50)})
	if err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	_, err = svc.Create(ctx, CreateInput{MinKm: 10, MaxKm: 20, RatePerKm: rate(60)})
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("second Create() error = %v, want *OverlapError", err)
	}
	if overlap.Conflict.ID != first.ID || overlap.Conflict.MinKm != 5 || overlap.Conflict.MaxKm != 15 {
		t.Errorf("conflict = %+v, want range %s [5,15]", overlap.Conflict, first.ID)
	}
}

func TestCreateRejectsTouchingRange(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	_, err := svc.Create(ctx, CreateInput{MinKm: 5, MaxKm: 10, RatePerKm: rate(80)})
	var overlap *OverlapError
	if !errors.As(err, &overlap) {
		t.Fatalf("Create([5,10]) error = %v, want *OverlapError", err)
	}
}

func TestCreateAssignsIdentityAndTimestamps(t *testing.T) {
	svc, _ := newTestService()
	r, err := svc.Create(context.Background(), CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: decimal.RequireFromString("12.345")})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if r.ID == "" {
		t.Error("ID is empty")
	}
	if r.CreatedAt.IsZero() || !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Errorf("CreatedAt = %v, UpdatedAt = %v", r.CreatedAt, r.UpdatedAt)
	}
	if !r.RatePerKm.Equal(decimal.RequireFromString("12.35")) {
		t.Errorf("RatePerKm = %s, want 12.35", r.RatePerKm)
	}
}

func TestListSortedByMinKm(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	for _, in := range []CreateInput{
		{MinKm: 20, MaxKm: 30, RatePerKm: rate(40)},
		{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)},
		{MinKm: 6, MaxKm: 19, RatePerKm: rate(60)},
	} {
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("Create(%+v) error = %v", in, err)
		}
	}

	ranges, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []float64{0, 6, 20}
	if len(ranges) != len(want) {
		t.Fatalf("len(List()) = %d, want %d", len(ranges), len(want))
	}
	for i, r := range ranges {
		if r.MinKm != want[i] {
			t.Errorf("ranges[%d].MinKm = %g, want %g", i, r.MinKm, want[i])
		}
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("partial merge keeps other fields", func(t *testing.T) {
		svc, _ := newTestService()
		r, _ := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)})
		max := 8.0
		got, err := svc.Update(ctx, r.ID, UpdateInput{MaxKm: &max})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.MinKm != 0 || got.MaxKm != 8 || !got.RatePerKm.Equal(rate(100)) {
			t.Errorf("Update() = %+v", got)
		}
		if got.UpdatedAt.Before(r.UpdatedAt) {
			t.Errorf("UpdatedAt went backwards")
		}
	})

	t.Run("excludes itself from overlap check", func(t *testing.T) {
		svc, _ := newTestService()
		r, _ := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)})
		min := 1.0
		if _, err := svc.Update(ctx, r.ID, UpdateInput{MinKm: &min}); err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	})

	t.Run("rejects overlap with neighbour", func(t *testing.T) {
		svc, store := newTestService()
		r, _ := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)})
		if _, err := svc.Create(ctx, CreateInput{MinKm: 6, MaxKm: 10, RatePerKm: rate(80)}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		max := 6.0
		_, err := svc.Update(ctx, r.ID, UpdateInput{MaxKm: &max})
		var overlap *OverlapError
		if !errors.As(err, &overlap) {
			t.Fatalf("Update() error = %v, want *OverlapError", err)
		}
		stored, _ := store.Get(ctx, r.ID)
		if stored.MaxKm != 5 {
			t.Errorf("stored MaxKm = %g, want 5 after rejected update", stored.MaxKm)
		}
	})

	t.Run("rejects inverted merge", func(t *testing.T) {
		svc, _ := newTestService()
		r, _ := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 5, RatePerKm: rate(100)})
		min := 7.0
		if _, err := svc.Update(ctx, r.ID, UpdateInput{MinKm: &min}); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("Update() error = %v, want ErrInvalidRange", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.Update(ctx, "missing", UpdateInput{}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Update() error = %v, want ErrNotFound", err)
		}
	})
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	r, _ := svc.Create(ctx, CreateInput{MinKm: 0, MaxKm: 10, RatePerKm: rate(50)})
	if err := svc.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
	if _, err := svc.Create(ctx, CreateInput{MinKm: 2, MaxKm: 8, RatePerKm: rate(50)}); err != nil {
		t.Fatalf("Create() after delete error = %v", err)
	}
}

func TestConcurrentOverlappingCreates(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Create(ctx, CreateInput{MinKm: float64(i), MaxKm: float64(i) + 10, RatePerKm: rate(30)})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		var overlap *OverlapError
		switch {
		case err == nil:
			succeeded++
		case errors.As(err, &overlap):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("%d overlapping creates succeeded, want 1", succeeded)
	}
	ranges, _ := store.List(ctx)
	if len(ranges) != 1 {
		t.Errorf("stored %d ranges, want 1", len(ranges))
	}
}

func TestRandomMutationsKeepTableDisjoint(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	rng := rand.New(rand.NewPCG(7, 11))

	var ids []string
	for i := 0; i < 500; i++ {
		min := float64(rng.IntN(200))
		max := min + float64(rng.IntN(15))
		if len(ids) > 0 && rng.IntN(3) == 0 {
			id := ids[rng.IntN(len(ids))]
			_, _ = svc.Update(ctx, id, UpdateInput{MinKm: &min, MaxKm: &max})
		} else if r, err := svc.Create(ctx, CreateInput{MinKm: min, MaxKm: max, RatePerKm: rate(10)}); err == nil {
			ids = append(ids, r.ID)
		}

		ranges, err := svc.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		for a := 0; a < len(ranges); a++ {
			if ranges[a].MinKm >= ranges[a].MaxKm {
				t.Fatalf("step %d: invalid range stored: %+v", i, ranges[a])
			}
			for b := a + 1; b < len(ranges); b++ {
				if Overlaps(ranges[a], ranges[b]) {
					t.Fatalf("step %d: %+v overlaps %+v", i, ranges[a], ranges[b])
				}
			}
		}
	}
}
