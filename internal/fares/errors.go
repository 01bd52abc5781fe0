package fares

import (
	"errors"
	"fmt"

	"github.com/chachabrian/mooveit-ledger/internal/models"
)

var (
	ErrNotFound     = errors.New("fare range not found")
	ErrInvalidRange = errors.New("invalid fare range")
	ErrInvalidRate  = errors.New("rate per km must not be negative")
)

// OverlapError reports the stored range that a candidate interval collides with.
type OverlapError struct {
	MinKm    float64
	MaxKm    float64
	Conflict models.FareRange
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("range %g-%g km overlaps existing range %g-%g km",
		e.MinKm, e.MaxKm, e.Conflict.MinKm, e.Conflict.MaxKm)
}
