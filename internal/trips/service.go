// Package trips runs the part of the ride lifecycle that touches money: a
// trip is priced once when requested and settled against the driver's
// ledger exactly once when it completes.
package trips

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Store interface {
	Create(ctx context.Context, trip *models.Trip) error
	Get(ctx context.Context, id string) (*models.Trip, error)
	// Transition writes trip's status and timestamps if the stored
	// status_version still equals version, and bumps the version. It
	// returns ErrConflict when another writer got there first.
	Transition(ctx context.Context, trip *models.Trip, version int) error
	ListByPassenger(ctx context.Context, passengerID string) ([]models.Trip, error)
	CountCompletedByDriver(ctx context.Context, driverID string) (int64, error)
}

type Pricer interface {
	PriceFor(ctx context.Context, distanceKm float64) (pricing.Quote, error)
}

type Ledger interface {
	IsLocked(ctx context.Context, driverID string) (bool, error)
	RecordTripCompletion(ctx context.Context, driverID, tripID string, price decimal.Decimal) (ledger.Completion, error)
}

type Drivers interface {
	DriverActive(ctx context.Context, driverID string) (bool, error)
}

type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// StatusNotifier is told about every committed status change.
type StatusNotifier interface {
	TripStatusChanged(ctx context.Context, trip models.Trip)
}

type RequestInput struct {
	PassengerID string
	Origin      string
	Destination string
	DistanceKm  float64
}

type Completed struct {
	Trip            models.Trip       `json:"trip"`
	FinancialUpdate ledger.Completion `json:"financial_update"`
}

type Service struct {
	store    Store
	pricer   Pricer
	ledger   Ledger
	drivers  Drivers
	tx       Transactor
	notifier StatusNotifier
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store Store, pricer Pricer, l Ledger, drivers Drivers, tx Transactor, notifier StatusNotifier, log *slog.Logger) *Service {
	return &Service{
		store:    store,
		pricer:   pricer,
		ledger:   l,
		drivers:  drivers,
		tx:       tx,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Request prices a new trip. The price is fixed here and never recomputed.
func (s *Service) Request(ctx context.Context, in RequestInput) (*models.Trip, error) {
	if !(in.DistanceKm > 0) || math.IsInf(in.DistanceKm, 0) {
		return nil, ErrInvalidDistance
	}
	quote, err := s.pricer.PriceFor(ctx, in.DistanceKm)
	if err != nil {
		return nil, err
	}

	trip := &models.Trip{
		ID:          uuid.NewString(),
		PassengerID: in.PassengerID,
		Origin:      in.Origin,
		Destination: in.Destination,
		DistanceKm:  in.DistanceKm,
		Price:       quote.Amount,
		Status:      models.TripStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, trip); err != nil {
		return nil, err
	}
	s.log.Info("trip requested", "trip_id", trip.ID, "passenger_id", trip.PassengerID,
		"distance_km", trip.DistanceKm, "price", trip.Price.String(), "price_source", string(quote.Source))
	return trip, nil
}

func (s *Service) Get(ctx context.Context, id string) (*models.Trip, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) PassengerTrips(ctx context.Context, passengerID string) ([]models.Trip, error) {
	return s.store.ListByPassenger(ctx, passengerID)
}

func (s *Service) CompletedCount(ctx context.Context, driverID string) (int64, error) {
	return s.store.CountCompletedByDriver(ctx, driverID)
}

// Accept assigns a pending trip to the driver. Locked and inactive drivers
// cannot accept trips.
func (s *Service) Accept(ctx context.Context, tripID, driverID string) (*models.Trip, error) {
	active, err := s.drivers.DriverActive(ctx, driverID)
	if err != nil {
		return nil, err
	}
	locked, err := s.ledger.IsLocked(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, ErrDriverLocked
	}
	if !active {
		return nil, ErrDriverInactive
	}

	return s.move(ctx, tripID, models.TripStatusAccepted, func(trip *models.Trip, now time.Time) error {
		trip.DriverID = &driverID
		trip.AcceptedAt = &now
		return nil
	})
}

func (s *Service) Start(ctx context.Context, tripID, driverID string) (*models.Trip, error) {
	return s.move(ctx, tripID, models.TripStatusInProgress, func(trip *models.Trip, now time.Time) error {
		if !assignedTo(trip, driverID) {
			return ErrNotParticipant
		}
		trip.StartedAt = &now
		return nil
	})
}

// Complete finishes the trip and settles it against the driver's ledger in
// one transaction. The status compare-and-swap guarantees only one caller
// ever reaches the ledger for a given trip.
func (s *Service) Complete(ctx context.Context, tripID, driverID string) (*Completed, error) {
	var out Completed
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		trip, err := s.move(ctx, tripID, models.TripStatusCompleted, func(trip *models.Trip, now time.Time) error {
			if !assignedTo(trip, driverID) {
				return ErrNotParticipant
			}
			trip.CompletedAt = &now
			return nil
		})
		if err != nil {
			return err
		}
		completion, err := s.ledger.RecordTripCompletion(ctx, driverID, trip.ID, trip.Price)
		if err != nil {
			return err
		}
		out = Completed{Trip: *trip, FinancialUpdate: completion}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("trip completed", "trip_id", tripID, "driver_id", driverID,
		"price", out.Trip.Price.String(), "commission", out.FinancialUpdate.CommissionAmount.String(),
		"account_locked", out.FinancialUpdate.AccountLocked)
	return &out, nil
}

// Cancel is open to the trip's passenger and its assigned driver.
func (s *Service) Cancel(ctx context.Context, tripID, userID string) (*models.Trip, error) {
	return s.move(ctx, tripID, models.TripStatusCancelled, func(trip *models.Trip, now time.Time) error {
		if trip.PassengerID != userID && !assignedTo(trip, userID) {
			return ErrNotParticipant
		}
		trip.CancelledAt = &now
		return nil
	})
}

func (s *Service) move(ctx context.Context, tripID string, to models.TripStatus, apply func(trip *models.Trip, now time.Time) error) (*models.Trip, error) {
	trip, err := s.store.Get(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(trip.Status, to) {
		return nil, &TransitionError{From: trip.Status, To: to}
	}
	if err := apply(trip, s.now().UTC()); err != nil {
		return nil, err
	}

	version := trip.StatusVersion
	trip.Status = to
	if err := s.store.Transition(ctx, trip, version); err != nil {
		return nil, err
	}
	trip.StatusVersion = version + 1

	if s.notifier != nil {
		snapshot := *trip
		database.AfterCommit(ctx, func(ctx context.Context) {
			s.notifier.TripStatusChanged(ctx, snapshot)
		})
	}
	return trip, nil
}

func assignedTo(trip *models.Trip, driverID string) bool {
	return trip.DriverID != nil && *trip.DriverID == driverID
}
