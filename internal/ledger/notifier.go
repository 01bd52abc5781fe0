package ledger

import (
	"context"

	"github.com/chachabrian/mooveit-ledger/internal/models"
)

type EventType string

const (
	EventFinancialUpdate EventType = "financial_update"
	EventAccountLocked   EventType = "account_locked"
	EventAccountUnlocked EventType = "account_unlocked"
	EventPaymentRecorded EventType = "commission_payment"
)

// Event describes a committed ledger change. Payment is set for
// EventPaymentRecorded and Completion for EventFinancialUpdate.
type Event struct {
	Type       EventType                 `json:"type"`
	DriverID   string                    `json:"driverId"`
	TripID     string                    `json:"tripId,omitempty"`
	Finance    models.DriverFinance      `json:"finance"`
	Payment    *models.CommissionPayment `json:"payment,omitempty"`
	Completion *Completion               `json:"completion,omitempty"`
}

// Notifier receives ledger events once the change that produced them has
// committed. Errors are logged by the ledger and never undo the change.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error { return nil }
