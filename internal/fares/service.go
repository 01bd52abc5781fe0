// Package fares maintains the distance fare table: an ordered set of
// non-overlapping [min_km, max_km] tiers, each with a per-km rate.
package fares

import (
	"context"
	"log/slog"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store interface {
	List(ctx context.Context) ([]models.FareRange, error)
	Get(ctx context.Context, id string) (*models.FareRange, error)
	Insert(ctx context.Context, r *models.FareRange) error
	Save(ctx context.Context, r *models.FareRange) error
	Delete(ctx context.Context, id string) error
	// WithWriteLock runs fn while holding the table-wide write lock, so the
	// overlap check and the write it guards see no concurrent writer.
	WithWriteLock(ctx context.Context, fn func(ctx context.Context) error) error
}

type Service struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewService(store Store, log *slog.Logger) *Service {
	return &Service{store: store, log: log, now: time.Now}
}

type CreateInput struct {
	MinKm     float64
	MaxKm     float64
	RatePerKm decimal.Decimal
}

// UpdateInput holds the fields to change; nil fields keep their stored value.
type UpdateInput struct {
	MinKm     *float64
	MaxKm     *float64
	RatePerKm *decimal.Decimal
}

// List returns the table ordered by ascending MinKm.
func (s *Service) List(ctx context.Context) ([]models.FareRange, error) {
	ranges, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	Sort(ranges)
	return ranges, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.FareRange, error) {
	r := &models.FareRange{
		ID:        uuid.NewString(),
		MinKm:     in.MinKm,
		MaxKm:     in.MaxKm,
		RatePerKm: in.RatePerKm.Round(2),
	}
	err := s.store.WithWriteLock(ctx, func(ctx context.Context) error {
		existing, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		if err := Validate(*r, existing); err != nil {
			return err
		}
		now := s.now().UTC()
		r.CreatedAt = now
		r.UpdatedAt = now
		return s.store.Insert(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("fare range created", "id", r.ID, "min_km", r.MinKm, "max_km", r.MaxKm, "rate_per_km", r.RatePerKm.String())
	return r, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.FareRange, error) {
	var updated models.FareRange
	err := s.store.WithWriteLock(ctx, func(ctx context.Context) error {
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return err
		}
		updated = *current
		if in.MinKm != nil {
			updated.MinKm = *in.MinKm
		}
		if in.MaxKm != nil {
			updated.MaxKm = *in.MaxKm
		}
		if in.RatePerKm != nil {
			updated.RatePerKm = in.RatePerKm.Round(2)
		}

		existing, err := s.store.List(ctx)
		if err != nil {
			return err
		}
		if err := Validate(updated, existing); err != nil {
			return err
		}
		updated.UpdatedAt = s.now().UTC()
		return s.store.Save(ctx, &updated)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("fare range updated", "id", id, "min_km", updated.MinKm, "max_km", updated.MaxKm, "rate_per_km", updated.RatePerKm.String())
	return &updated, nil
}

// Delete removes a range. Removing a tier cannot introduce an overlap, so
// nothing is re-validated.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.store.WithWriteLock(ctx, func(ctx context.Context) error {
		return s.store.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("fare range deleted", "id", id)
	return nil
}
