package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/debacu/evalgate/internal/plan/domain"
	"gorm.io/datatypes"
)

// Subscription lifecycle statuses.
const (
	StatusTrialActive     = "TRIAL_ACTIVE"
	StatusPaymentRequired = "PAYMENT_REQUIRED"
	StatusSuspended       = "SUSPENDED"
	StatusActive          = "ACTIVE"
	StatusPendingPayment  = "PENDING_PAYMENT"
	StatusReplaced        = "REPLACED"
	StatusCancelled       = "CANCELLED"
)

// Defaults applied when a lapsed trial is moved to PAYMENT_REQUIRED.
const (
	DefaultRequiredPlanCode         = "BASIC"
	DefaultRequiredBillingFrequency = "YEARLY"
	GracePeriod                     = 15 * 24 * time.Hour
)

// PlanDisplayNameFallback is shown when the effective row has no
// resolvable plan.
const PlanDisplayNameFallback = "Plan activo"

type Subscription struct {
	ID                       snowflake.ID      `gorm:"primaryKey" json:"id"`
	CustomerID               snowflake.ID      `gorm:"not null;index:idx_subscriptions_customer_app" json:"customer_id"`
	AppCode                  string            `gorm:"not null;index:idx_subscriptions_customer_app" json:"app_code"`
	PlanID                   snowflake.ID      `gorm:"column:plan_id" json:"plan_id,omitempty"`
	Status                   string            `gorm:"not null;index" json:"status"`
	StartDate                *time.Time        `gorm:"column:start_date" json:"start_date,omitempty"`
	TrialEndsAt              *time.Time        `gorm:"column:trial_ends_at" json:"trial_ends_at,omitempty"`
	GraceEndsAt              *time.Time        `gorm:"column:grace_ends_at" json:"grace_ends_at,omitempty"`
	SuspendedAt              *time.Time        `gorm:"column:suspended_at" json:"suspended_at,omitempty"`
	NextBillingDate          *time.Time        `gorm:"column:next_billing_date" json:"next_billing_date,omitempty"`
	RequiredPlanCode         string            `gorm:"column:required_plan_code" json:"required_plan_code,omitempty"`
	RequiredBillingFrequency string            `gorm:"column:required_billing_frequency" json:"required_billing_frequency,omitempty"`
	ReplacesSubscriptionID   *snowflake.ID     `gorm:"column:replaces_subscription_id" json:"replaces_subscription_id,omitempty"`
	Metadata                 datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt                time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt                time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// EffectiveState is the derived view clients consume. It is a snapshot;
// the sweeper may move the row between the read and the caller acting
// on it, so callers re-check per request instead of caching it.
type EffectiveState struct {
	Subscription       *Subscription    `json:"subscription,omitempty"`
	Plan               *plandomain.Plan `json:"plan,omitempty"`
	PlanDisplayName    string           `json:"plan_display_name"`
	PlanCode           string           `json:"plan_code,omitempty"`
	MaxQueriesPerMonth *int             `json:"max_queries_per_month,omitempty"`
	NextBillingDate    *time.Time       `json:"next_billing_date,omitempty"`
	Status             string           `json:"status,omitempty"`
	IsPaywalled        bool             `json:"is_paywalled"`
}

// IsPaywalledStatus reports whether a status denies access. Absence of
// a subscription is not paywalled here; that policy belongs to callers.
func IsPaywalledStatus(status string) bool {
	return status == StatusPaymentRequired || status == StatusSuspended
}
