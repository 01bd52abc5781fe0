package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FareRange prices every kilometre of a trip whose distance falls in [MinKm, MaxKm].
type FareRange struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	MinKm     float64         `json:"minKm" gorm:"column:min_km;not null;index"`
	MaxKm     float64         `json:"maxKm" gorm:"column:max_km;not null"`
	RatePerKm decimal.Decimal `json:"ratePerKm" gorm:"column:rate_per_km;type:numeric(12,2);not null"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// TableName specifies the table name
func (FareRange) TableName() string {
	return "fare_ranges"
}

// PricingConfigID is the primary key of the single pricing_config row.
const PricingConfigID = "pricing_config"

// PricingConfig is the flat fallback formula used while no fare ranges exist.
type PricingConfig struct {
	ID        string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BaseFare  decimal.Decimal `json:"baseFare" gorm:"column:base_fare;type:numeric(12,2);not null"`
	PerKm     decimal.Decimal `json:"perKm" gorm:"column:per_km;type:numeric(12,2);not null"`
	UpdatedAt time.Time       `json:"updatedAt"`
	UpdatedBy string          `json:"updatedBy,omitempty" gorm:"column:updated_by"`
}

// TableName specifies the table name
func (PricingConfig) TableName() string {
	return "pricing_config"
}
