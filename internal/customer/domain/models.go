package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AdminSectorID marks back-office accounts. Admins bypass the
// subscription gate at login.
const AdminSectorID = "ADMIN"

type Customer struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Username     string            `gorm:"not null;uniqueIndex" json:"username"`
	PasswordHash *string           `gorm:"column:password_hash" json:"-"`
	Name         string            `gorm:"not null" json:"name"`
	Email        string            `json:"email"`
	SectorID     string            `gorm:"column:sector_id" json:"sector_id"`
	IsActive     bool              `gorm:"not null;default:true" json:"is_active"`
	StartDate    *time.Time        `gorm:"column:start_date" json:"start_date,omitempty"`
	Metadata     datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// IsAdmin reports whether the account belongs to the back-office sector.
func (c Customer) IsAdmin() bool {
	return strings.TrimSpace(c.SectorID) == AdminSectorID
}
