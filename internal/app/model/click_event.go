package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column widths for the bounded click_events text columns. Values written to
// them must be cut to fit or the insert fails.
const (
	ClickIPSize        = 64
	ClickLocationSize  = 100
	ClickAgentPartSize = 64
	ClickDeviceSize    = 16
)

// ClickEvent is one recorded visit to a short link. Rows are written once per
// successful redirect and only disappear with their link.
type ClickEvent struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	LinkID     string    `json:"link_id" gorm:"type:uuid;not null;index:idx_click_events_link_clicked_at,priority:1"`
	ClickedAt  time.Time `json:"clicked_at" gorm:"not null;index:idx_click_events_link_clicked_at,priority:2"`
	IPAddress  *string   `json:"ip_address" gorm:"size:64;index"`
	Country    *string   `json:"country" gorm:"size:100;index"`
	City       *string   `json:"city" gorm:"size:100"`
	Region     *string   `json:"region" gorm:"size:100"`
	UserAgent  *string   `json:"user_agent" gorm:"type:text"`
	Referrer   *string   `json:"referrer" gorm:"type:text"`
	Browser    *string   `json:"browser" gorm:"size:64"`
	OS         *string   `json:"os" gorm:"size:64"`
	DeviceType *string   `json:"device_type" gorm:"size:16"`
}

func (ClickEvent) TableName() string { return "click_events" }

func (e *ClickEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// ClickMessage is the payload published to JetStream after a click is stored.
type ClickMessage struct {
	EventID    string    `json:"event_id"`
	LinkID     string    `json:"link_id"`
	ShortCode  string    `json:"short_code"`
	ClickedAt  time.Time `json:"clicked_at"`
	IPAddress  string    `json:"ip_address,omitempty"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	DeviceType string    `json:"device_type,omitempty"`
}

const (
	ClickStreamName     = "CLICKS"
	ClickStreamSubject  = "clicks.events"
	ClickConsumerName   = "click-logger"
	ClickStreamMaxBytes = 1024 * 1024 * 100 // 100MB
)

// GeoInfo is the best-effort location resolved for a client IP.
type GeoInfo struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}
