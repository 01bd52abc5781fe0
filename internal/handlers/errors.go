package handlers

import (
	"errors"
	"log/slog"

	"github.com/chachabrian/mooveit-ledger/internal/fares"
	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/chachabrian/mooveit-ledger/internal/trips"
	"github.com/gin-gonic/gin"
)

// writeError maps domain errors to responses. Anything unrecognised is
// logged and reported as a 500 without details.
func writeError(c *gin.Context, err error) {
	var (
		overlap    *fares.OverlapError
		gap        *pricing.NoApplicableRangeError
		overLimit  *ledger.StillOverLimitError
		transition *trips.TransitionError
	)

	switch {
	case errors.As(err, &overlap):
		c.JSON(400, gin.H{
			"error": err.Error(),
			"conflict": gin.H{
				"id":        overlap.Conflict.ID,
				"minKm":     overlap.Conflict.MinKm,
				"maxKm":     overlap.Conflict.MaxKm,
				"ratePerKm": overlap.Conflict.RatePerKm,
			},
		})
	case errors.As(err, &gap):
		c.JSON(422, gin.H{
			"error":       err.Error(),
			"distanceKm":  gap.DistanceKm,
			"lowestMinKm": gap.LowestMinKm,
		})
	case errors.As(err, &overLimit):
		c.JSON(409, gin.H{
			"error":     err.Error(),
			"pending":   overLimit.Pending,
			"debtLimit": overLimit.Limit,
		})
	case errors.As(err, &transition):
		c.JSON(409, gin.H{"error": err.Error(), "status": transition.From})
	case errors.Is(err, trips.ErrConflict):
		c.JSON(409, gin.H{"error": err.Error()})
	case errors.Is(err, fares.ErrInvalidRange),
		errors.Is(err, fares.ErrInvalidRate),
		errors.Is(err, pricing.ErrInvalidConfig),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidPeriod),
		errors.Is(err, trips.ErrInvalidDistance):
		c.JSON(400, gin.H{"error": err.Error()})
	case errors.Is(err, fares.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound),
		errors.Is(err, ledger.ErrDriverNotFound),
		errors.Is(err, trips.ErrNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, trips.ErrDriverLocked),
		errors.Is(err, trips.ErrDriverInactive),
		errors.Is(err, trips.ErrNotParticipant):
		c.JSON(403, gin.H{"error": err.Error()})
	default:
		slog.ErrorContext(c.Request.Context(), "request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}
