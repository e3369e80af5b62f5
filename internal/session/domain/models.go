package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Session struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID       snowflake.ID `gorm:"not null;index" json:"customer_id"`
	AppCode          string       `gorm:"not null;index" json:"app_code"`
	CustomerName     string       `json:"customer_name"`
	SessionTokenHash string       `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt        time.Time    `gorm:"not null" json:"expires_at"`
	RevokedAt        *time.Time   `json:"revoked_at,omitempty"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	LastSeenAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"last_seen_at"`
}

func (Session) TableName() string {
	return "sessions"
}
