package fares

import (
	"context"
	"errors"
	"fmt"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"gorm.io/gorm"
)

// fareTableLockKey identifies the postgres advisory lock guarding fare_ranges writes.
const fareTableLockKey int64 = 0x6661726573

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) List(ctx context.Context) ([]models.FareRange, error) {
	var ranges []models.FareRange
	if err := database.Conn(ctx, s.db).Order("min_km ASC").Find(&ranges).Error; err != nil {
		return nil, fmt.Errorf("list fare ranges: %w", err)
	}
	return ranges, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.FareRange, error) {
	var r models.FareRange
	err := database.Conn(ctx, s.db).Where("id = ?", id).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get fare range: %w", err)
	}
	return &r, nil
}

func (s *GormStore) Insert(ctx context.Context, r *models.FareRange) error {
	if err := database.Conn(ctx, s.db).Create(r).Error; err != nil {
		return fmt.Errorf("insert fare range: %w", err)
	}
	return nil
}

func (s *GormStore) Save(ctx context.Context, r *models.FareRange) error {
	err := database.Conn(ctx, s.db).Model(&models.FareRange{}).
		Where("id = ?", r.ID).
		Updates(map[string]interface{}{
			"min_km":      r.MinKm,
			"max_km":      r.MaxKm,
			"rate_per_km": r.RatePerKm,
			"updated_at":  r.UpdatedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("save fare range: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	res := database.Conn(ctx, s.db).Where("id = ?", id).Delete(&models.FareRange{})
	if res.Error != nil {
		return fmt.Errorf("delete fare range: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) WithWriteLock(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context) error {
		if err := database.Conn(ctx, s.db).Exec("SELECT pg_advisory_xact_lock(?)", fareTableLockKey).Error; err != nil {
			return fmt.Errorf("lock fare table: %w", err)
		}
		return fn(ctx)
	})
}
