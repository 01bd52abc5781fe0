package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/redis/go-redis/v9"
)

// FinanceUpdatesChannel carries every committed ledger event.
const FinanceUpdatesChannel = "driver:finance:updates"

type Redis struct {
	client *redis.Client
}

// NewRedis connects to url and pings the server.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisFromClient(client), nil
}

// NewRedisFromClient wraps an already configured client.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func availabilityKey(driverID string) string {
	return "driver:availability:" + driverID
}

// SetDriverAvailability stores whether dispatch may offer trips to the driver.
// The flag does not expire; it follows the ledger lock.
func (r *Redis) SetDriverAvailability(ctx context.Context, driverID string, available bool) error {
	value := "true"
	if !available {
		value = "false"
	}
	return r.client.Set(ctx, availabilityKey(driverID), value, 0).Err()
}

// GetDriverAvailability reports the stored flag. A driver with no flag is available.
func (r *Redis) GetDriverAvailability(ctx context.Context, driverID string) (bool, error) {
	result, err := r.client.Get(ctx, availabilityKey(driverID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return result == "true", nil
}

type financeUpdate struct {
	Type          ledger.EventType `json:"type"`
	DriverID      string           `json:"driverId"`
	TripID        string           `json:"tripId,omitempty"`
	PaymentID     string           `json:"paymentId,omitempty"`
	Pending       string           `json:"commissionPending"`
	DebtLimit     string           `json:"debtLimit"`
	AccountLocked bool             `json:"accountLocked"`
	Timestamp     int64            `json:"timestamp"`
}

func newFinanceUpdate(event ledger.Event, now time.Time) financeUpdate {
	u := financeUpdate{
		Type:          event.Type,
		DriverID:      event.DriverID,
		TripID:        event.TripID,
		Pending:       event.Finance.CommissionPending.StringFixed(2),
		DebtLimit:     event.Finance.DebtLimit.StringFixed(2),
		AccountLocked: event.Finance.AccountLocked,
		Timestamp:     now.Unix(),
	}
	if event.Payment != nil {
		u.PaymentID = event.Payment.ID
	}
	return u
}

// PublishFinanceUpdate publishes the event on FinanceUpdatesChannel.
func (r *Redis) PublishFinanceUpdate(ctx context.Context, event ledger.Event) error {
	data, err := json.Marshal(newFinanceUpdate(event, time.Now()))
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, FinanceUpdatesChannel, data).Err()
}

// Notify publishes the event and keeps the availability flag in step with
// lock transitions.
func (r *Redis) Notify(ctx context.Context, event ledger.Event) error {
	switch event.Type {
	case ledger.EventAccountLocked:
		if err := r.SetDriverAvailability(ctx, event.DriverID, false); err != nil {
			return err
		}
	case ledger.EventAccountUnlocked:
		if err := r.SetDriverAvailability(ctx, event.DriverID, true); err != nil {
			return err
		}
	}
	return r.PublishFinanceUpdate(ctx, event)
}
