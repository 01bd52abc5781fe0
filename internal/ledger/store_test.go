package ledger

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"github.com/chachabrian/mooveit-ledger/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open(os.Getenv("MOOVEIT_TEST_DSN")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func seedDriver(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	id := uuid.NewString()
	u := models.User{ID: id, Name: "Test Driver", Phone: "test-" + id, UserType: models.UserTypeDriver, IsActive: true}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed driver: %v", err)
	}
	t.Cleanup(func() {
		db.Where("driver_id = ?", id).Delete(&models.CommissionPayment{})
		db.Where("driver_id = ?", id).Delete(&models.DriverFinance{})
		db.Where("id = ?", id).Delete(&models.User{})
	})
	return u
}

func TestGormStoreSerializesConcurrentCompletions(t *testing.T) {
	if os.Getenv("MOOVEIT_TEST_DSN") == "" {
		t.Skip("MOOVEIT_TEST_DSN not set")
	}
	db := openTestDB(t)
	driver := seedDriver(t, db)
	svc := NewService(NewGormStore(db), NewGormDirectory(db), nil, nil, testConfig, logger.Discard())
	ctx := context.Background()

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordTripCompletion(ctx, driver.ID, uuid.NewString(), d("600"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("RecordTripCompletion() error = %v", err)
		}
	}

	var count int64
	db.Model(&models.DriverFinance{}).Where("driver_id = ?", driver.ID).Count(&count)
	if count != 1 {
		t.Fatalf("%d finance records for one driver, want 1", count)
	}

	rec, err := NewGormStore(db).Get(ctx, driver.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !rec.TotalEarnings.Equal(d("6000")) || !rec.CommissionPending.Equal(d("1200")) || !rec.AccountLocked {
		t.Errorf("record = earnings %s pending %s locked %v", rec.TotalEarnings, rec.CommissionPending, rec.AccountLocked)
	}

	var user models.User
	db.Where("id = ?", driver.ID).First(&user)
	if user.IsActive {
		t.Error("locked driver still active")
	}
}
