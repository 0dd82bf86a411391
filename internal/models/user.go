// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;index"`
	CompanyName  string     `json:"company_name" gorm:"size:255"`
	Country      string     `json:"country" gorm:"size:2"`
	Verified     bool       `json:"verified" gorm:"default:false"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	ProfileData  JSONB      `json:"profile_data" gorm:"type:jsonb"`
	VerifiedAt   *time.Time `json:"verified_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Products []Product `json:"products,omitempty" gorm:"foreignKey:SupplierID"`
	Quotes   []Quote   `json:"quotes,omitempty" gorm:"foreignKey:SupplierID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
