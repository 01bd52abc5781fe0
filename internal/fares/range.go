package fares

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chachabrian/mooveit-ledger/internal/models"
)

// Overlaps reports whether the closed intervals of a and b share a point.
// Ranges that only touch at an endpoint overlap.
func Overlaps(a, b models.FareRange) bool {
	return a.MaxKm >= b.MinKm && a.MinKm <= b.MaxKm
}

// Validate checks candidate against the stored table. A range with the same
// ID as candidate is the record being updated and is skipped.
func Validate(candidate models.FareRange, existing []models.FareRange) error {
	if candidate.MinKm < 0 {
		return fmt.Errorf("%w: min km %g is negative", ErrInvalidRange, candidate.MinKm)
	}
	if candidate.MinKm >= candidate.MaxKm {
		return fmt.Errorf("%w: min km %g must be less than max km %g", ErrInvalidRange, candidate.MinKm, candidate.MaxKm)
	}
	if candidate.RatePerKm.IsNegative() {
		return ErrInvalidRate
	}
	for _, r := range existing {
		if r.ID == candidate.ID {
			continue
		}
		if Overlaps(candidate, r) {
			return &OverlapError{MinKm: candidate.MinKm, MaxKm: candidate.MaxKm, Conflict: r}
		}
	}
	return nil
}

// Sort orders ranges by ascending MinKm in place.
func Sort(ranges []models.FareRange) {
	slices.SortStableFunc(ranges, func(a, b models.FareRange) int {
		return cmp.Compare(a.MinKm, b.MinKm)
	})
}
