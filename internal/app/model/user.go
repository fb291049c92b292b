package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
)

// User owns short links. PasswordHash never leaves the service.
type User struct {
	ID           string    `json:"id" gorm:"type:uuid;primaryKey"`
	Username     string    `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Email        string    `json:"email" gorm:"size:100;not null;uniqueIndex"`
	FirstName    string    `json:"first_name" gorm:"size:100;not null;default:''"`
	LastName     string    `json:"last_name" gorm:"size:100;not null;default:''"`
	Address      *string   `json:"address" gorm:"type:text"`
	Gender       *string   `json:"gender" gorm:"size:30"`
	IsActive     bool      `json:"is_active" gorm:"not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	DateJoined   time.Time `json:"date_joined" gorm:"autoCreateTime"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
