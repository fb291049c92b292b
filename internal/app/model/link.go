package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShortCodeLength is the fixed length of generated short codes.
const ShortCodeLength = 12

// ShortLink describes the core short-link entity stored in Postgres.
type ShortLink struct {
	ID            string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        string     `json:"user" gorm:"type:uuid;not null;index:idx_short_links_user_code,priority:1"`
	Name          string     `json:"name" gorm:"size:255;not null;default:''"`
	LongURL       string     `json:"long_url" gorm:"type:text;not null"`
	ShortCode     string     `json:"short_code" gorm:"size:12;not null;uniqueIndex;index:idx_short_links_user_code,priority:2"`
	CreatedAt     time.Time  `json:"created_at" gorm:"autoCreateTime;index;<-:create"`
	ClickCount    int64      `json:"clicks" gorm:"not null;default:0;check:click_count >= 0"`
	LastClickedAt *time.Time `json:"clicked_date"`

	User        *User        `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	ClickEvents []ClickEvent `json:"-" gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE"`
}

func (ShortLink) TableName() string { return "short_links" }

func (l *ShortLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
