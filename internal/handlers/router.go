package handlers

import (
	"github.com/chachabrian/mooveit-ledger/internal/middleware"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	Fares     FareTable
	Pricing   PricingEngine
	Ledger    Ledger
	Trips     Trips
	Counter   TripCounter
	Names     UserNames
	Hub       *services.Hub
}

// RegisterRoutes mounts every API route on r.
func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if d.DB != nil {
		api.POST("/auth/login", Login(d.DB, d.JWTSecret))
	}
	api.POST("/estimate-price", EstimatePrice(d.Pricing))

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))
	if d.Hub != nil {
		protected.GET("/ws", WebSocketHandler(d.Hub))
	}

	admin := protected.Group("/admin", middleware.RequireRole(models.UserTypeAdmin))
	{
		admin.GET("/fare-ranges", ListFareRanges(d.Fares))
		admin.POST("/fare-ranges", CreateFareRange(d.Fares))
		admin.PUT("/fare-ranges/:id", UpdateFareRange(d.Fares))
		admin.DELETE("/fare-ranges/:id", DeleteFareRange(d.Fares))

		admin.GET("/pricing-config", GetPricingConfig(d.Pricing))
		admin.PUT("/pricing-config", UpdatePricingConfig(d.Pricing))

		admin.GET("/finances/drivers", ListDriverFinances(d.Ledger))
		admin.GET("/finances/driver/:driverId", GetDriverFinanceDetails(d.Ledger, d.Counter))
		admin.POST("/finances/record-payment", RecordCommissionPayment(d.Ledger, d.Names))
		admin.PUT("/finances/unlock-account/:driverId", UnlockDriverAccount(d.Ledger))
		admin.GET("/finances/summary", FinanceSummary(d.Ledger))
	}

	driver := protected.Group("/driver", middleware.RequireRole(models.UserTypeDriver))
	{
		driver.GET("/finances", GetMyFinances(d.Ledger))
		driver.GET("/commission-history", GetMyCommissionHistory(d.Ledger))
		driver.GET("/earnings-summary", GetMyEarningsSummary(d.Ledger))
		driver.POST("/trips/:tripId/accept", AcceptTrip(d.Trips))
		driver.POST("/trips/:tripId/start", StartTrip(d.Trips))
		driver.POST("/trips/:tripId/complete", CompleteTrip(d.Trips))
	}

	passenger := protected.Group("/passenger", middleware.RequireRole(models.UserTypePassenger))
	{
		passenger.GET("/trips", ListMyTrips(d.Trips))
		passenger.POST("/trips", RequestTrip(d.Trips))
		passenger.POST("/trips/:tripId/cancel", CancelTrip(d.Trips))
	}
}
