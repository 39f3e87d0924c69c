// internal/models/staff.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Staff accounts operate shifts and read analytics. Kiosk customers are anonymous sessions.
type Staff struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	DisplayName  string     `json:"display_name" gorm:"size:100"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         StaffRole  `json:"role" gorm:"type:varchar(20);not null;default:'operator'"`
	Active       bool       `json:"active" gorm:"not null;default:true"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (Staff) TableName() string {
	return "staff"
}

func (s *Staff) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = string(hashedPassword)
	return nil
}

func (s *Staff) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(password))
}
