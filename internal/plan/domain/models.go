package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Plan tier labels surfaced to clients at login.
const (
	TierBasic        = "BASIC"
	TierProfessional = "PROFESSIONAL"
	TierEnterprise   = "ENTERPRISE"
	TierAdmin        = "ADMIN"
)

type Plan struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	Code               string            `gorm:"not null;uniqueIndex" json:"code"`
	Name               string            `gorm:"not null" json:"name"`
	PriceMonthly       int64             `gorm:"not null;default:0" json:"price_monthly"`
	MaxQueriesPerMonth *int              `gorm:"column:max_queries_per_month" json:"max_queries_per_month,omitempty"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Plan) TableName() string {
	return "plans"
}

// TierForCode maps a plan code onto the client-facing tier label.
// Unknown codes fall back to the basic tier.
func TierForCode(code string) string {
	upper := strings.ToUpper(strings.TrimSpace(code))
	switch {
	case strings.Contains(upper, "ENTER"):
		return TierEnterprise
	case strings.Contains(upper, "PRO"):
		return TierProfessional
	default:
		return TierBasic
	}
}
