package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DriverFinance is the running commission ledger of one driver.
type DriverFinance struct {
	ID                string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DriverID          string          `json:"driverId" gorm:"column:driver_id;type:varchar(36);not null;uniqueIndex"`
	DriverName        string          `json:"driverName" gorm:"column:driver_name"`
	DriverPhone       string          `json:"driverPhone" gorm:"column:driver_phone"`
	TotalEarnings     decimal.Decimal `json:"totalEarnings" gorm:"column:total_earnings;type:numeric(14,2);not null"`
	CommissionRate    decimal.Decimal `json:"commissionRate" gorm:"column:commission_rate;type:numeric(5,2);not null"`
	CommissionOwed    decimal.Decimal `json:"commissionOwed" gorm:"column:commission_owed;type:numeric(14,2);not null"`
	CommissionPaid    decimal.Decimal `json:"commissionPaid" gorm:"column:commission_paid;type:numeric(14,2);not null"`
	CommissionPending decimal.Decimal `json:"commissionPending" gorm:"column:commission_pending;type:numeric(14,2);not null;index"`
	NetEarnings       decimal.Decimal `json:"netEarnings" gorm:"column:net_earnings;type:numeric(14,2);not null"`
	AccountLocked     bool            `json:"accountLocked" gorm:"column:account_locked;not null"`
	DebtLimit         decimal.Decimal `json:"debtLimit" gorm:"column:debt_limit;type:numeric(14,2);not null"`
	Currency          string          `json:"currency" gorm:"size:3;not null"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// TableName specifies the table name
func (DriverFinance) TableName() string {
	return "driver_finances"
}

// CommissionPayment is an immutable entry in the commission payment log.
type CommissionPayment struct {
	ID             string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	DriverID       string          `json:"driverId" gorm:"column:driver_id;type:varchar(36);not null;index:idx_commission_payments_driver_date,priority:1"`
	DriverName     string          `json:"driverName" gorm:"column:driver_name"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(14,2);not null"`
	PaymentMethod  string          `json:"paymentMethod" gorm:"column:payment_method;not null"`
	RecordedBy     string          `json:"recordedBy" gorm:"column:recorded_by;not null"`
	RecordedByName string          `json:"recordedByName" gorm:"column:recorded_by_name"`
	Notes          string          `json:"notes,omitempty"`
	PaymentDate    time.Time       `json:"paymentDate" gorm:"column:payment_date;not null;index:idx_commission_payments_driver_date,priority:2"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// TableName specifies the table name
func (CommissionPayment) TableName() string {
	return "commission_payments"
}
