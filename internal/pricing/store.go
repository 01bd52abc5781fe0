package pricing

import (
	"context"
	"fmt"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormConfigStore struct {
	db *gorm.DB
}

func NewGormConfigStore(db *gorm.DB) *GormConfigStore {
	return &GormConfigStore{db: db}
}

func (s *GormConfigStore) GetOrCreate(ctx context.Context, defaults models.PricingConfig) (*models.PricingConfig, error) {
	db := database.Conn(ctx, s.db)
	defaults.ID = models.PricingConfigID
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&defaults).Error; err != nil {
		return nil, fmt.Errorf("create pricing config: %w", err)
	}

	var cfg models.PricingConfig
	if err := db.Where("id = ?", models.PricingConfigID).First(&cfg).Error; err != nil {
		return nil, fmt.Errorf("load pricing config: %w", err)
	}
	return &cfg, nil
}

func (s *GormConfigStore) Update(ctx context.Context, cfg models.PricingConfig) (*models.PricingConfig, error) {
	cfg.ID = models.PricingConfigID
	err := database.Conn(ctx, s.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"base_fare", "per_km", "updated_at", "updated_by"}),
	}).Create(&cfg).Error
	if err != nil {
		return nil, fmt.Errorf("update pricing config: %w", err)
	}
	return &cfg, nil
}
