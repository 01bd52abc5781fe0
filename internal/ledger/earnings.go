package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidPeriod = errors.New("period must be one of today, week, month, all")

type Period string

const (
	PeriodToday Period = "today"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod accepts the earnings summary periods; empty means today.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(raw); p {
	case "":
		return PeriodToday, nil
	case PeriodToday, PeriodWeek, PeriodMonth, PeriodAll:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Start is the earliest completion time counted for p. A zero time means
// no lower bound. Today starts at UTC midnight; week and month are the
// trailing 7 and 30 days.
func (p Period) Start(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case PeriodToday:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return now.AddDate(0, 0, -30)
	}
	return time.Time{}
}

// TripHistory reads the prices of a driver's completed trips.
type TripHistory interface {
	CompletedPrices(ctx context.Context, driverID string, since time.Time) ([]decimal.Decimal, error)
}

type OverallFinances struct {
	TotalEarnings     decimal.Decimal `json:"totalEarnings"`
	CommissionPending decimal.Decimal `json:"commissionPending"`
	AccountLocked     bool            `json:"accountLocked"`
}

type EarningsSummary struct {
	Period           Period          `json:"period"`
	TripCount        int             `json:"tripCount"`
	TotalEarned      decimal.Decimal `json:"totalEarned"`
	CommissionAmount decimal.Decimal `json:"commissionAmount"`
	NetEarnings      decimal.Decimal `json:"netEarnings"`
	Currency         string          `json:"currency"`
	Overall          OverallFinances `json:"overallFinances"`
}

// EarningsSummary totals the driver's completed trips in period next to the
// account's lifetime figures. Commission is rounded per trip at the
// account's rate, the same way each trip was settled.
func (s *Service) EarningsSummary(ctx context.Context, driverID string, period Period) (*EarningsSummary, error) {
	rec, err := s.Finance(ctx, driverID)
	if err != nil {
		return nil, err
	}
	prices, err := s.trips.CompletedPrices(ctx, driverID, period.Start(s.now()))
	if err != nil {
		return nil, err
	}

	out := &EarningsSummary{
		Period:    period,
		TripCount: len(prices),
		Currency:  s.cfg.Currency,
		Overall: OverallFinances{
			TotalEarnings:     rec.TotalEarnings,
			CommissionPending: rec.CommissionPending,
			AccountLocked:     rec.AccountLocked,
		},
	}
	for _, price := range prices {
		price = price.Round(2)
		commission := price.Mul(rec.CommissionRate).Div(hundred).Round(2)
		out.TotalEarned = out.TotalEarned.Add(price)
		out.CommissionAmount = out.CommissionAmount.Add(commission)
	}
	out.NetEarnings = out.TotalEarned.Sub(out.CommissionAmount)
	return out, nil
}
