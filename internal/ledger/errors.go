package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDriverNotFound = errors.New("driver not found")
	ErrNotFound       = errors.New("finance record not found")
	ErrInvalidAmount  = errors.New("amount must be positive")
)

// StillOverLimitError is returned by UnlockAccount while the outstanding
// commission is at or above the debt limit.
type StillOverLimitError struct {
	Pending decimal.Decimal
	Limit   decimal.Decimal
}

func (e *StillOverLimitError) Error() string {
	return fmt.Sprintf("pending commission %s is still at or above the debt limit %s",
		e.Pending.StringFixed(2), e.Limit.StringFixed(2))
}
