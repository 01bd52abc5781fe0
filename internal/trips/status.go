package trips

import "github.com/chachabrian/mooveit-ledger/internal/models"

var transitions = map[models.TripStatus][]models.TripStatus{
	models.TripStatusPending:    {models.TripStatusAccepted, models.TripStatusCancelled},
	models.TripStatusAccepted:   {models.TripStatusInProgress, models.TripStatusCancelled},
	models.TripStatusInProgress: {models.TripStatusCompleted},
}

// CanTransition reports whether a trip in status from may move to status to.
// Completed and cancelled are terminal.
func CanTransition(from, to models.TripStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
