package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/chachabrian/mooveit-ledger/internal/config"
	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/fares"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/internal/pricing"
	"github.com/chachabrian/mooveit-ledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sampleRanges = []fares.CreateInput{
	{MinKm: 0, MaxKm: 5, RatePerKm: decimal.NewFromInt(100)},
	{MinKm: 5.01, MaxKm: 10, RatePerKm: decimal.NewFromInt(80)},
	{MinKm: 10.01, MaxKm: 20, RatePerKm: decimal.NewFromInt(70)},
}

func main() {
	log := logger.New("mooveit-seed")
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	db, err := database.InitDB(cfg.DB)
	if err != nil {
		log.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	ctx := context.Background()

	if err := seedUsers(ctx, db, log); err != nil {
		log.Error("failed to seed users", "error", err)
		os.Exit(1)
	}
	fareService := fares.NewService(fares.NewGormStore(db), log)
	if err := seedFares(ctx, fareService, log); err != nil {
		log.Error("failed to seed fare ranges", "error", err)
		os.Exit(1)
	}

	engine := pricing.NewEngine(fareService, pricing.NewGormConfigStore(db), pricing.Defaults{
		BaseFare: cfg.Pricing.BaseFare,
		PerKm:    cfg.Pricing.PerKm,
	})
	if _, err := engine.Config(ctx); err != nil {
		log.Error("failed to seed pricing config", "error", err)
		os.Exit(1)
	}
	log.Info("seed complete")
}

func seedUsers(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	adminPassword := os.Getenv("SEED_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}
	admin := models.User{Name: "Admin", Email: "admin@mooveit.local", Phone: "+93700000000", UserType: models.UserTypeAdmin, IsActive: true}
	if err := admin.SetPassword(adminPassword); err != nil {
		return err
	}

	users := []models.User{
		admin,
		{Name: "Ahmad Driver", Phone: "+93700000001", UserType: models.UserTypeDriver, IsActive: true, CarModel: "Toyota Corolla"},
		{Name: "Karim Driver", Phone: "+93700000002", UserType: models.UserTypeDriver, IsActive: true, CarModel: "Honda Civic"},
		{Name: "Sara Passenger", Phone: "+93700000003", UserType: models.UserTypePassenger, IsActive: true},
	}
	for i := range users {
		users[i].ID = uuid.NewString()
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "phone"}},
		DoNothing: true,
	}).Create(&users)
	if res.Error != nil {
		return res.Error
	}
	log.Info("users seeded", "inserted", res.RowsAffected)
	return nil
}

func seedFares(ctx context.Context, svc *fares.Service, log *slog.Logger) error {
	existing, err := svc.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("fare ranges already present, skipping", "count", len(existing))
		return nil
	}
	for _, in := range sampleRanges {
		if _, err := svc.Create(ctx, in); err != nil {
			var overlap *fares.OverlapError
			if errors.As(err, &overlap) {
				log.Warn("skipping overlapping sample range", "minKm", in.MinKm, "maxKm", in.MaxKm)
				continue
			}
			return err
		}
	}
	return nil
}
