package handlers

import (
	"errors"

	"github.com/chachabrian/mooveit-ledger/pkg/utils"
)

var errDistanceRequired = errors.New("distanceKm or pickup and dropoff coordinates are required")

// routeInput is the distance part of estimate and trip requests. An explicit
// distanceKm wins over coordinates.
type routeInput struct {
	DistanceKm *float64           `json:"distanceKm"`
	Pickup     *utils.Coordinates `json:"pickup"`
	Dropoff    *utils.Coordinates `json:"dropoff"`
}

func (r routeInput) distance() (float64, error) {
	if r.DistanceKm != nil {
		return *r.DistanceKm, nil
	}
	if r.Pickup == nil || r.Dropoff == nil {
		return 0, errDistanceRequired
	}
	return utils.RouteDistanceKm(*r.Pickup, *r.Dropoff)
}
