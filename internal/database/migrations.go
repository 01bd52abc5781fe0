package database

import (
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.FareRange{},
		&models.PricingConfig{},
		&models.Trip{},
		&models.DriverFinance{},
		&models.CommissionPayment{},
	)
	if err != nil {
		return err
	}

	constraints := []string{
		`ALTER TABLE fare_ranges DROP CONSTRAINT IF EXISTS fare_ranges_bounds_check`,
		`ALTER TABLE fare_ranges ADD CONSTRAINT fare_ranges_bounds_check CHECK (min_km < max_km)`,
		`ALTER TABLE users DROP CONSTRAINT IF EXISTS users_user_type_check`,
		`ALTER TABLE users ADD CONSTRAINT users_user_type_check CHECK (user_type IN ('passenger', 'driver', 'admin'))`,
		`ALTER TABLE commission_payments DROP CONSTRAINT IF EXISTS commission_payments_amount_check`,
		`ALTER TABLE commission_payments ADD CONSTRAINT commission_payments_amount_check CHECK (amount > 0)`,
	}
	for _, stmt := range constraints {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}
