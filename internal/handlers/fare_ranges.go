package handlers

import (
	"context"

	"github.com/chachabrian/mooveit-ledger/internal/fares"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FareTable interface {
	List(ctx context.Context) ([]models.FareRange, error)
	Create(ctx context.Context, in fares.CreateInput) (*models.FareRange, error)
	Update(ctx context.Context, id string, in fares.UpdateInput) (*models.FareRange, error)
	Delete(ctx context.Context, id string) error
}

// ListFareRanges returns the fare table ordered by min km
func ListFareRanges(table FareTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		ranges, err := table.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, ranges)
	}
}

func CreateFareRange(table FareTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			MinKm     *float64            `json:"minKm" binding:"required"`
			MaxKm     *float64            `json:"maxKm" binding:"required"`
			RatePerKm decimal.NullDecimal `json:"ratePerKm"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		rate, err := utils.ParseAmount("ratePerKm", input.RatePerKm)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		r, err := table.Create(c.Request.Context(), fares.CreateInput{
			MinKm:     *input.MinKm,
			MaxKm:     *input.MaxKm,
			RatePerKm: rate,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, r)
	}
}

// UpdateFareRange applies a partial update; omitted fields keep their value
func UpdateFareRange(table FareTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			MinKm     *float64            `json:"minKm"`
			MaxKm     *float64            `json:"maxKm"`
			RatePerKm decimal.NullDecimal `json:"ratePerKm"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		update := fares.UpdateInput{MinKm: input.MinKm, MaxKm: input.MaxKm}
		if input.RatePerKm.Valid {
			rate, _ := utils.ParseAmount("ratePerKm", input.RatePerKm)
			update.RatePerKm = &rate
		}
		r, err := table.Update(c.Request.Context(), c.Param("id"), update)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, r)
	}
}

func DeleteFareRange(table FareTable) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := table.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Fare range deleted"})
	}
}
