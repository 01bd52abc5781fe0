package handlers

import (
	"context"

	"github.com/chachabrian/mooveit-ledger/internal/ledger"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type Ledger interface {
	Finance(ctx context.Context, driverID string) (*models.DriverFinance, error)
	Finances(ctx context.Context) ([]models.DriverFinance, error)
	Details(ctx context.Context, driverID string) (*ledger.Details, error)
	Payments(ctx context.Context, driverID string) ([]models.CommissionPayment, error)
	Summary(ctx context.Context) (ledger.Summary, error)
	RecordCommissionPayment(ctx context.Context, in ledger.PaymentInput) (ledger.PaymentResult, error)
	UnlockAccount(ctx context.Context, driverID string) (*models.DriverFinance, error)
	EarningsSummary(ctx context.Context, driverID string, period ledger.Period) (*ledger.EarningsSummary, error)
}

type TripCounter interface {
	CompletedCount(ctx context.Context, driverID string) (int64, error)
}

type UserNames interface {
	UserName(ctx context.Context, userID string) (string, error)
}

// ListDriverFinances returns every driver's ledger, highest pending commission first
func ListDriverFinances(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		finances, err := l.Finances(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, finances)
	}
}

func GetDriverFinanceDetails(l Ledger, counter TripCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID := c.Param("driverId")
		details, err := l.Details(c.Request.Context(), driverID)
		if err != nil {
			writeError(c, err)
			return
		}
		completed, err := counter.CompletedCount(c.Request.Context(), driverID)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"finance":        details.Finance,
			"payments":       details.Payments,
			"completedTrips": completed,
		})
	}
}

func RecordCommissionPayment(l Ledger, names UserNames) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			DriverID      string              `json:"driverId" binding:"required"`
			Amount        decimal.NullDecimal `json:"amount"`
			PaymentMethod string              `json:"paymentMethod"`
			Notes         string              `json:"notes"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}
		amount, err := utils.ParseAmount("amount", input.Amount)
		if err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		adminID := c.GetString("userId")
		adminName, err := names.UserName(c.Request.Context(), adminID)
		if err != nil {
			writeError(c, err)
			return
		}

		result, err := l.RecordCommissionPayment(c.Request.Context(), ledger.PaymentInput{
			DriverID:       input.DriverID,
			Amount:         amount,
			PaymentMethod:  input.PaymentMethod,
			RecordedBy:     adminID,
			RecordedByName: adminName,
			Notes:          input.Notes,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(201, gin.H{
			"message":    "Payment recorded",
			"payment":    result.Payment,
			"newPending": result.NewPending,
		})
	}
}

func UnlockDriverAccount(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		finance, err := l.UnlockAccount(c.Request.Context(), c.Param("driverId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, gin.H{
			"message": "Account unlocked",
			"finance": finance,
		})
	}
}

func FinanceSummary(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := l.Summary(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, summary)
	}
}

// GetMyFinances returns the calling driver's ledger
func GetMyFinances(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		finance, err := l.Finance(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, finance)
	}
}

func GetMyCommissionHistory(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := l.Payments(c.Request.Context(), c.GetString("userId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, payments)
	}
}

// GetMyEarningsSummary totals the calling driver's completed trips for
// ?period=today|week|month|all (default today)
func GetMyEarningsSummary(l Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		period, err := ledger.ParsePeriod(c.Query("period"))
		if err != nil {
			writeError(c, err)
			return
		}
		summary, err := l.EarningsSummary(c.Request.Context(), c.GetString("userId"), period)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(200, summary)
	}
}
