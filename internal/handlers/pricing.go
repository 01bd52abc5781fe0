package handlers

import (
	"context"

	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PricingEngine interface {
	PriceFor(ctx context.Context, distanceKm float64) (pricing.Quote, error)
	Config(ctx context.Context) (*models.PricingConfig, error)
	UpdateConfig(ctx context.Context, baseFare, perKm decimal.Decimal, updatedBy string) (*models.PricingConfig, error)
}

// EstimatePrice quotes a fare for a distance, or a pickup/dropoff pair, without creating a trip
func EstimatePrice(engine PricingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input routeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		distanceKm, err := input.distance()
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		if distanceKm <= 0 {
			c.JSON(400, gin.H{"error": "distanceKm must be greater than zero"})
			return
		}

		quote, err := engine.PriceFor(c.Request.Context(), distanceKm)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"distanceKm": distanceKm,
			"price":      quote.Amount,
			"source":     quote.Source,
			"rangeId":    quote.RangeID,
		})
	}
}

func GetPricingConfig(engine PricingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := engine.Config(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, cfg)
	}
}

func UpdatePricingConfig(engine PricingEngine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			BaseFare decimal.NullDecimal `json:"baseFare"`
			PerKm    decimal.NullDecimal `json:"perKm"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		baseFare, err := utils.ParseAmount("baseFare", input.BaseFare)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		perKm, err := utils.ParseAmount("perKm", input.PerKm)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		cfg, err := engine.UpdateConfig(c.Request.Context(), baseFare, perKm, c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, cfg)
	}
}
