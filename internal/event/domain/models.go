package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Lifecycle event types recorded against subscriptions.
const (
	TypeTrialEndedPaymentRequired = "TRIAL_ENDED_PAYMENT_REQUIRED"
	TypeSuspendedForNonPayment    = "SUSPENDED_FOR_NON_PAYMENT"
	TypePlanChangeRequested       = "PLAN_CHANGE_REQUESTED"
)

// LifecycleEvent is an append-only audit record. Rows are never updated
// or deleted.
type LifecycleEvent struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID      `gorm:"not null;index" json:"subscription_id"`
	CustomerID     snowflake.ID      `gorm:"not null;index" json:"customer_id"`
	Type           string            `gorm:"not null" json:"type"`
	Payload        datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"payload,omitempty"`
	OccurredAt     time.Time         `gorm:"not null" json:"occurred_at"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (LifecycleEvent) TableName() string {
	return "lifecycle_events"
}
