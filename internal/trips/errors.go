package trips

import (
	"errors"
	"fmt"

	"github.com/chachabrian/mooveit-ledger/internal/models"
)

var (
	ErrNotFound        = errors.New("trip not found")
	ErrInvalidDistance = errors.New("distance must be greater than zero")
	ErrConflict        = errors.New("trip was modified concurrently")
	ErrDriverLocked    = errors.New("driver account is locked until outstanding commission is paid")
	ErrDriverInactive  = errors.New("driver account is inactive")
	ErrNotParticipant  = errors.New("user is not a participant of this trip")
)

type TransitionError struct {
	From models.TripStatus
	To   models.TripStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("trip cannot move from %s to %s", e.From, e.To)
}
