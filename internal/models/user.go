package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type UserType string

const (
	UserTypePassenger UserType = "passenger"
	UserTypeDriver    UserType = "driver"
	UserTypeAdmin     UserType = "admin"
)

// User is the directory entry for passengers, drivers and admins.
// IsActive is cleared while a driver's commission account is locked.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"column:name;not null"`
	Email        string    `json:"email,omitempty" gorm:"column:email;index"`
	Phone        string    `json:"phone" gorm:"column:phone;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	UserType     UserType  `json:"userType" gorm:"column:user_type;not null;index"`
	IsActive     bool      `json:"isActive" gorm:"column:is_active;not null"`
	CarModel     string    `json:"carModel,omitempty" gorm:"column:car_model"`
	FCMToken     string    `json:"-" gorm:"column:fcm_token"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

func (u *User) SetPassword(password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashed)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
