package handlers

import (
	"context"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/trips"
	"github.com/gin-gonic/gin"
)

type Trips interface {
	Request(ctx context.Context, in trips.RequestInput) (*models.Trip, error)
	PassengerTrips(ctx context.Context, passengerID string) ([]models.Trip, error)
	Accept(ctx context.Context, tripID, driverID string) (*models.Trip, error)
	Start(ctx context.Context, tripID, driverID string) (*models.Trip, error)
	Complete(ctx context.Context, tripID, driverID string) (*trips.Completed, error)
	Cancel(ctx context.Context, tripID, userID string) (*models.Trip, error)
}

// RequestTrip creates a trip priced from its distance or its pickup/dropoff coordinates
func RequestTrip(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			routeInput
			Origin      string `json:"origin" binding:"required"`
			Destination string `json:"destination" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		distanceKm, err := input.distance()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		trip, err := svc.Request(c.Request.Context(), trips.RequestInput{
			PassengerID: c.GetString("userId"),
			Origin:      input.Origin,
			Destination: input.Destination,
			DistanceKm:  distanceKm,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, trip)
	}
}

func ListMyTrips(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.PassengerTrips(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, list)
	}
}

func CancelTrip(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		trip, err := svc.Cancel(c.Request.Context(), c.Param("tripId"), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, trip)
	}
}

func AcceptTrip(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		trip, err := svc.Accept(c.Request.Context(), c.Param("tripId"), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, trip)
	}
}

func StartTrip(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		trip, err := svc.Start(c.Request.Context(), c.Param("tripId"), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, trip)
	}
}

// CompleteTrip finishes the trip and reports the commission it generated
func CompleteTrip(svc Trips) gin.HandlerFunc {
	return func(c *gin.Context) {
		done, err := svc.Complete(c.Request.Context(), c.Param("tripId"), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"message":          "Trip completed successfully",
			"trip":             done.Trip,
			"financial_update": done.FinancialUpdate,
		})
	}
}
