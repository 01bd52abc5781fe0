// Package ledger keeps each driver's commission account: earnings from
// completed trips, commission owed and paid, and the automatic lock that
// stops a driver from taking trips once unpaid commission reaches the
// debt limit.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultPaymentMethod = "cash"

var hundred = decimal.NewFromInt(100)

type Contact struct {
	Name  string
	Phone string
}

// Directory is the slice of the user directory the ledger reads from.
type Directory interface {
	DriverExists(ctx context.Context, driverID string) (bool, error)
	DriverContact(ctx context.Context, driverID string) (Contact, error)
}

// Tx is the write surface available to an Update callback. Everything
// written through it commits or rolls back together with the record.
type Tx interface {
	Save(rec *models.DriverFinance) error
	AppendPayment(p *models.CommissionPayment) error
	SetDriverActive(driverID string, active bool) error
}

type Store interface {
	// EnsureFinance inserts rec unless a record for rec.DriverID already exists.
	EnsureFinance(ctx context.Context, rec *models.DriverFinance) error
	Get(ctx context.Context, driverID string) (*models.DriverFinance, error)
	// List returns every record ordered by pending commission, highest first.
	List(ctx context.Context) ([]models.DriverFinance, error)
	// Payments returns a driver's payments, newest first.
	Payments(ctx context.Context, driverID string) ([]models.CommissionPayment, error)
	// Update loads the driver's record under an exclusive row lock and
	// passes it to fn. It returns ErrNotFound when no record exists.
	Update(ctx context.Context, driverID string, fn func(ctx context.Context, tx Tx, rec *models.DriverFinance) error) error
	Summary(ctx context.Context) (Summary, error)
}

// Config holds the terms given to new finance records.
type Config struct {
	CommissionRate decimal.Decimal
	DebtLimit      decimal.Decimal
	Currency       string
}

// Completion is the ledger's answer to a settled trip.
type Completion struct {
	CommissionAmount decimal.Decimal `json:"commission_amount"`
	NetEarning       decimal.Decimal `json:"net_earning"`
	AccountLocked    bool            `json:"account_locked"`
}

type PaymentInput struct {
	DriverID       string
	Amount         decimal.Decimal
	PaymentMethod  string
	RecordedBy     string
	RecordedByName string
	Notes          string
}

type PaymentResult struct {
	Payment    models.CommissionPayment `json:"payment"`
	NewPending decimal.Decimal          `json:"newPending"`
}

type Details struct {
	Finance  models.DriverFinance       `json:"finance"`
	Payments []models.CommissionPayment `json:"payments"`
}

type Summary struct {
	TotalDrivers           int64           `json:"totalDrivers"`
	TotalEarnings          decimal.Decimal `json:"totalEarnings"`
	TotalCommissionOwed    decimal.Decimal `json:"totalCommissionOwed"`
	TotalCommissionPaid    decimal.Decimal `json:"totalCommissionPaid"`
	TotalCommissionPending decimal.Decimal `json:"totalCommissionPending"`
	LockedAccounts         int64           `json:"lockedAccounts"`
	Currency               string          `json:"currency"`
}

type Service struct {
	store    Store
	dir      Directory
	trips    TripHistory
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store Store, dir Directory, trips TripHistory, notifier Notifier, cfg Config, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{store: store, dir: dir, trips: trips, notifier: notifier, cfg: cfg, log: log, now: time.Now}
}

// Finance returns the driver's record, creating an empty one on first reference.
func (s *Service) Finance(ctx context.Context, driverID string) (*models.DriverFinance, error) {
	rec, err := s.store.Get(ctx, driverID)
	if !errors.Is(err, ErrNotFound) {
		return rec, err
	}
	if err := s.ensure(ctx, driverID); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, driverID)
}

// IsLocked reports whether the driver's account is locked. A driver with no
// record yet has nothing owed and is not locked.
func (s *Service) IsLocked(ctx context.Context, driverID string) (bool, error) {
	rec, err := s.store.Get(ctx, driverID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.AccountLocked, nil
}

// RecordTripCompletion settles one completed trip against the driver's
// account. It must be called exactly once per trip; callers tie it to the
// trip's one-way move to completed.
func (s *Service) RecordTripCompletion(ctx context.Context, driverID, tripID string, price decimal.Decimal) (Completion, error) {
	if price.IsNegative() {
		return Completion{}, ErrInvalidAmount
	}
	price = price.Round(2)

	var (
		out      Completion
		snapshot models.DriverFinance
		locked   bool
	)
	err := s.update(ctx, driverID, func(ctx context.Context, tx Tx, rec *models.DriverFinance) error {
		commission := price.Mul(rec.CommissionRate).Div(hundred).Round(2)
		net := price.Sub(commission)

		rec.TotalEarnings = rec.TotalEarnings.Add(price)
		rec.CommissionOwed = rec.CommissionOwed.Add(commission)
		rec.CommissionPending = rec.CommissionOwed.Sub(rec.CommissionPaid)
		rec.NetEarnings = rec.NetEarnings.Add(net)

		if !rec.AccountLocked && rec.CommissionPending.GreaterThanOrEqual(rec.DebtLimit) {
			rec.AccountLocked = true
			locked = true
			if err := tx.SetDriverActive(driverID, false); err != nil {
				return err
			}
		}
		rec.UpdatedAt = s.now().UTC()
		if err := tx.Save(rec); err != nil {
			return err
		}

		out = Completion{CommissionAmount: commission, NetEarning: net, AccountLocked: rec.AccountLocked}
		snapshot = *rec
		return nil
	})
	if err != nil {
		return Completion{}, err
	}

	completion := out
	database.AfterCommit(ctx, func(ctx context.Context) {
		s.notify(ctx, Event{Type: EventFinancialUpdate, DriverID: driverID, TripID: tripID, Finance: snapshot, Completion: &completion})
		if locked {
			s.log.Info("driver account locked", "driver_id", driverID,
				"pending", snapshot.CommissionPending.String(), "debt_limit", snapshot.DebtLimit.String())
			s.notify(ctx, Event{Type: EventAccountLocked, DriverID: driverID, TripID: tripID, Finance: snapshot})
		}
	})
	return out, nil
}

// RecordCommissionPayment appends a payment to the log and applies it to the
// account. Paying down the balance never clears a lock; that takes an
// explicit UnlockAccount.
func (s *Service) RecordCommissionPayment(ctx context.Context, in PaymentInput) (PaymentResult, error) {
	amount := in.Amount.Round(2)
	if !amount.IsPositive() {
		return PaymentResult{}, ErrInvalidAmount
	}
	method := in.PaymentMethod
	if method == "" {
		method = DefaultPaymentMethod
	}

	var result PaymentResult
	var snapshot models.DriverFinance
	err := s.update(ctx, in.DriverID, func(ctx context.Context, tx Tx, rec *models.DriverFinance) error {
		now := s.now().UTC()
		payment := models.CommissionPayment{
			ID:             uuid.NewString(),
			DriverID:       in.DriverID,
			DriverName:     rec.DriverName,
			Amount:         amount,
			PaymentMethod:  method,
			RecordedBy:     in.RecordedBy,
			RecordedByName: in.RecordedByName,
			Notes:          in.Notes,
			PaymentDate:    now,
			CreatedAt:      now,
		}
		if err := tx.AppendPayment(&payment); err != nil {
			return err
		}

		rec.CommissionPaid = rec.CommissionPaid.Add(amount)
		rec.CommissionPending = rec.CommissionOwed.Sub(rec.CommissionPaid)
		rec.UpdatedAt = now
		if err := tx.Save(rec); err != nil {
			return err
		}

		result = PaymentResult{Payment: payment, NewPending: rec.CommissionPending}
		snapshot = *rec
		return nil
	})
	if err != nil {
		return PaymentResult{}, err
	}

	payment := result.Payment
	database.AfterCommit(ctx, func(ctx context.Context) {
		s.log.Info("commission payment recorded", "driver_id", in.DriverID, "payment_id", payment.ID,
			"amount", amount.String(), "pending", snapshot.CommissionPending.String(), "recorded_by", in.RecordedBy)
		s.notify(ctx, Event{Type: EventPaymentRecorded, DriverID: in.DriverID, Finance: snapshot, Payment: &payment})
	})
	return result, nil
}

// UnlockAccount clears the lock and reactivates the driver. It fails with
// *StillOverLimitError while pending commission is at or above the limit,
// and with ErrNotFound when the driver has no finance record.
func (s *Service) UnlockAccount(ctx context.Context, driverID string) (*models.DriverFinance, error) {
	var snapshot models.DriverFinance
	var wasLocked bool
	err := s.store.Update(ctx, driverID, func(ctx context.Context, tx Tx, rec *models.DriverFinance) error {
		if rec.CommissionPending.GreaterThanOrEqual(rec.DebtLimit) {
			return &StillOverLimitError{Pending: rec.CommissionPending, Limit: rec.DebtLimit}
		}
		wasLocked = rec.AccountLocked
		rec.AccountLocked = false
		if err := tx.SetDriverActive(driverID, true); err != nil {
			return err
		}
		rec.UpdatedAt = s.now().UTC()
		if err := tx.Save(rec); err != nil {
			return err
		}
		snapshot = *rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasLocked {
		database.AfterCommit(ctx, func(ctx context.Context) {
			s.log.Info("driver account unlocked", "driver_id", driverID, "pending", snapshot.CommissionPending.String())
			s.notify(ctx, Event{Type: EventAccountUnlocked, DriverID: driverID, Finance: snapshot})
		})
	}
	return &snapshot, nil
}

func (s *Service) Finances(ctx context.Context) ([]models.DriverFinance, error) {
	return s.store.List(ctx)
}

// Details returns the driver's record together with their payment history.
func (s *Service) Details(ctx context.Context, driverID string) (*Details, error) {
	rec, err := s.Finance(ctx, driverID)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return &Details{Finance: *rec, Payments: payments}, nil
}

func (s *Service) Payments(ctx context.Context, driverID string) ([]models.CommissionPayment, error) {
	return s.store.Payments(ctx, driverID)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	sum, err := s.store.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	sum.Currency = s.cfg.Currency
	return sum, nil
}

// update runs fn on the driver's locked record, creating the record first
// when the driver has none.
func (s *Service) update(ctx context.Context, driverID string, fn func(ctx context.Context, tx Tx, rec *models.DriverFinance) error) error {
	err := s.store.Update(ctx, driverID, fn)
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	if err := s.ensure(ctx, driverID); err != nil {
		return err
	}
	return s.store.Update(ctx, driverID, fn)
}

func (s *Service) ensure(ctx context.Context, driverID string) error {
	exists, err := s.dir.DriverExists(ctx, driverID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrDriverNotFound
	}
	contact, err := s.dir.DriverContact(ctx, driverID)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	return s.store.EnsureFinance(ctx, &models.DriverFinance{
		ID:                uuid.NewString(),
		DriverID:          driverID,
		DriverName:        contact.Name,
		DriverPhone:       contact.Phone,
		TotalEarnings:     decimal.Zero,
		CommissionRate:    s.cfg.CommissionRate,
		CommissionOwed:    decimal.Zero,
		CommissionPaid:    decimal.Zero,
		CommissionPending: decimal.Zero,
		NetEarnings:       decimal.Zero,
		DebtLimit:         s.cfg.DebtLimit,
		Currency:          s.cfg.Currency,
		CreatedAt:         now,
		UpdatedAt:         now,
	})
}

func (s *Service) notify(ctx context.Context, event Event) {
	if err := s.notifier.Notify(ctx, event); err != nil {
		s.log.Warn("ledger notification failed", "type", string(event.Type), "driver_id", event.DriverID, "error", err)
	}
}
