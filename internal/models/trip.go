package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TripStatus string

const (
	TripStatusPending    TripStatus = "pending"
	TripStatusAccepted   TripStatus = "accepted"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// Trip carries the fare-relevant part of a ride. Price is fixed when the
// trip is requested and is what the ledger settles on completion.
type Trip struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PassengerID   string          `json:"passengerId" gorm:"column:passenger_id;not null;index"`
	DriverID      *string         `json:"driverId,omitempty" gorm:"column:driver_id;index"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DistanceKm    float64         `json:"distanceKm" gorm:"column:distance_km;not null"`
	Price         decimal.Decimal `json:"price" gorm:"type:numeric(14,2);not null"`
	Status        TripStatus      `json:"status" gorm:"not null;index"`
	StatusVersion int             `json:"-" gorm:"column:status_version;not null"`
	CreatedAt     time.Time       `json:"createdAt"`
	AcceptedAt    *time.Time      `json:"acceptedAt,omitempty"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
	CancelledAt   *time.Time      `json:"cancelledAt,omitempty"`
}

// TableName specifies the table name
func (Trip) TableName() string {
	return "trips"
}
