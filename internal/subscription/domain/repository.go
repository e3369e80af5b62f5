package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// ListByCustomer returns rows for a customer and app pair, newest
	// created first, capped at limit.
	ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string, limit int) ([]*Subscription, error)
	// FindActive returns the ACTIVE row with the latest start date, or nil.
	FindActive(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string) (*Subscription, error)
	// FindPendingPayment returns any PENDING_PAYMENT row, or nil.
	FindPendingPayment(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string) (*Subscription, error)

	// ListTrialExpired returns TRIAL_ACTIVE rows whose trial ended strictly
	// before now, oldest first, capped at limit.
	ListTrialExpired(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*Subscription, error)
	// ListGraceExpired returns PAYMENT_REQUIRED rows whose grace window
	// ended strictly before now, oldest first, capped at limit.
	ListGraceExpired(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*Subscription, error)
	// MarkPaymentRequired moves a lapsed trial to PAYMENT_REQUIRED. The
	// status predicate makes retries after partial failures no-ops.
	MarkPaymentRequired(ctx context.Context, db *gorm.DB, id snowflake.ID, now, graceEndsAt time.Time, planCode, billingFrequency string) (int64, error)
	// MarkSuspended moves a lapsed grace window to SUSPENDED.
	MarkSuspended(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error)
}
