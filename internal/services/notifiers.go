package services

import (
	"context"
	"errors"

	"github.com/chachabrian/mooveit-ledger/internal/ledger"
)

// Notifiers fans an event out to every notifier. All of them are called
// even when an earlier one fails.
type Notifiers []ledger.Notifier

func (n Notifiers) Notify(ctx context.Context, event ledger.Event) error {
	var errs []error
	for _, notifier := range n {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
