package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/chachabrian/mooveit-ledger/internal/database"
	"github.com/chachabrian/mooveit-ledger/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) EnsureFinance(ctx context.Context, rec *models.DriverFinance) error {
	err := database.Conn(ctx, s.db).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "driver_id"}}, DoNothing: true}).
		Create(rec).Error
	if err != nil {
		return fmt.Errorf("create driver finance: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, driverID string) (*models.DriverFinance, error) {
	var rec models.DriverFinance
	err := database.Conn(ctx, s.db).Where("driver_id = ?", driverID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get driver finance: %w", err)
	}
	return &rec, nil
}

func (s *GormStore) List(ctx context.Context) ([]models.DriverFinance, error) {
	recs := []models.DriverFinance{}
	if err := database.Conn(ctx, s.db).Order("commission_pending DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list driver finances: %w", err)
	}
	return recs, nil
}

func (s *GormStore) Payments(ctx context.Context, driverID string) ([]models.CommissionPayment, error) {
	payments := []models.CommissionPayment{}
	err := database.Conn(ctx, s.db).
		Where("driver_id = ?", driverID).
		Order("payment_date DESC").
		Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("list commission payments: %w", err)
	}
	return payments, nil
}

func (s *GormStore) Update(ctx context.Context, driverID string, fn func(ctx context.Context, tx Tx, rec *models.DriverFinance) error) error {
	return database.Transaction(ctx, s.db, func(ctx context.Context) error {
		db := database.Conn(ctx, s.db)

		var rec models.DriverFinance
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("driver_id = ?", driverID).
			First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock driver finance: %w", err)
		}
		return fn(ctx, &gormTx{db: db}, &rec)
	})
}

func (s *GormStore) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	err := database.Conn(ctx, s.db).Model(&models.DriverFinance{}).
		Select(`COUNT(*) AS total_drivers,
			COALESCE(SUM(total_earnings), 0) AS total_earnings,
			COALESCE(SUM(commission_owed), 0) AS total_commission_owed,
			COALESCE(SUM(commission_paid), 0) AS total_commission_paid,
			COALESCE(SUM(commission_pending), 0) AS total_commission_pending,
			COUNT(*) FILTER (WHERE account_locked) AS locked_accounts`).
		Scan(&sum).Error
	if err != nil {
		return Summary{}, fmt.Errorf("summarize driver finances: %w", err)
	}
	return sum, nil
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) Save(rec *models.DriverFinance) error {
	if err := t.db.Save(rec).Error; err != nil {
		return fmt.Errorf("save driver finance: %w", err)
	}
	return nil
}

func (t *gormTx) AppendPayment(p *models.CommissionPayment) error {
	if err := t.db.Create(p).Error; err != nil {
		return fmt.Errorf("append commission payment: %w", err)
	}
	return nil
}

func (t *gormTx) SetDriverActive(driverID string, active bool) error {
	res := t.db.Model(&models.User{}).Where("id = ?", driverID).Update("is_active", active)
	if res.Error != nil {
		return fmt.Errorf("set driver active: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrDriverNotFound
	}
	return nil
}

// GormDirectory reads drivers from the users table.
type GormDirectory struct {
	db *gorm.DB
}

func NewGormDirectory(db *gorm.DB) *GormDirectory {
	return &GormDirectory{db: db}
}

func (d *GormDirectory) DriverExists(ctx context.Context, driverID string) (bool, error) {
	var count int64
	err := database.Conn(ctx, d.db).Model(&models.User{}).
		Where("id = ? AND user_type = ?", driverID, models.UserTypeDriver).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("look up driver: %w", err)
	}
	return count > 0, nil
}

func (d *GormDirectory) DriverContact(ctx context.Context, driverID string) (Contact, error) {
	user, err := d.driver(ctx, driverID)
	if err != nil {
		return Contact{}, err
	}
	return Contact{Name: user.Name, Phone: user.Phone}, nil
}

// DriverActive reports the driver's is_active flag.
func (d *GormDirectory) DriverActive(ctx context.Context, driverID string) (bool, error) {
	user, err := d.driver(ctx, driverID)
	if err != nil {
		return false, err
	}
	return user.IsActive, nil
}

// UserName returns the display name of any user.
func (d *GormDirectory) UserName(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := database.Conn(ctx, d.db).Select("name").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up user: %w", err)
	}
	return user.Name, nil
}

// FCMToken returns the device token push notifications go to, or "" if the
// driver has not registered a device.
func (d *GormDirectory) FCMToken(ctx context.Context, userID string) (string, error) {
	var user models.User
	err := database.Conn(ctx, d.db).Select("fcm_token").Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up fcm token: %w", err)
	}
	return user.FCMToken, nil
}

func (d *GormDirectory) driver(ctx context.Context, driverID string) (*models.User, error) {
	var user models.User
	err := database.Conn(ctx, d.db).
		Where("id = ? AND user_type = ?", driverID, models.UserTypeDriver).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDriverNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("look up driver: %w", err)
	}
	return &user, nil
}
