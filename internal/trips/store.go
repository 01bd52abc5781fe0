package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, trip *models.Trip) error {
	if err := database.Conn(ctx, s.db).Create(trip).Error; err != nil {
		return fmt.Errorf("create trip: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	err := database.Conn(ctx, s.db).Where("id = ?", id).First(&trip).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	return &trip, nil
}

func (s *GormStore) Transition(ctx context.Context, trip *models.Trip, version int) error {
	res := database.Conn(ctx, s.db).Model(&models.Trip{}).
		Where("id = ? AND status_version = ?", trip.ID, version).
		Updates(map[string]interface{}{
			"status":         trip.Status,
			"status_version": version + 1,
			"driver_id":      trip.DriverID,
			"accepted_at":    trip.AcceptedAt,
			"started_at":     trip.StartedAt,
			"completed_at":   trip.CompletedAt,
			"cancelled_at":   trip.CancelledAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update trip status: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return ErrConflict
	}
	return nil
}

func (s *GormStore) ListByPassenger(ctx context.Context, passengerID string) ([]models.Trip, error) {
	trips := []models.Trip{}
	err := database.Conn(ctx, s.db).
		Where("passenger_id = ?", passengerID).
		Order("created_at DESC").
		Find(&trips).Error
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return trips, nil
}

func (s *GormStore) CountCompletedByDriver(ctx context.Context, driverID string) (int64, error) {
	var count int64
	err := database.Conn(ctx, s.db).Model(&models.Trip{}).
		Where("driver_id = ? AND status = ?", driverID, models.TripStatusCompleted).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count completed trips: %w", err)
	}
	return count, nil
}

// CompletedPrices returns the prices of the driver's completed trips that
// finished at or after since. A zero since means all of them.
func (s *GormStore) CompletedPrices(ctx context.Context, driverID string, since time.Time) ([]decimal.Decimal, error) {
	q := database.Conn(ctx, s.db).Model(&models.Trip{}).
		Where("driver_id = ? AND status = ?", driverID, models.TripStatusCompleted)
	if !since.IsZero() {
		q = q.Where("completed_at >= ?", since)
	}
	prices := []decimal.Decimal{}
	if err := q.Order("completed_at DESC").Pluck("price", &prices).Error; err != nil {
		return nil, fmt.Errorf("list completed trip prices: %w", err)
	}
	return prices, nil
}
