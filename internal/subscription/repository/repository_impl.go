package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/subscription/domain"
	"gorm.io/gorm"
)

const selectColumns = `id, customer_id, app_code, plan_id, status, start_date, trial_ends_at, grace_ends_at,
	suspended_at, next_billing_date, required_plan_code, required_billing_frequency,
	replaces_subscription_id, metadata, created_at, updated_at`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *domain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (id, customer_id, app_code, plan_id, status, start_date, trial_ends_at, grace_ends_at,
		 suspended_at, next_billing_date, required_plan_code, required_billing_frequency,
		 replaces_subscription_id, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.CustomerID,
		subscription.AppCode,
		subscription.PlanID,
		subscription.Status,
		subscription.StartDate,
		subscription.TrialEndsAt,
		subscription.GraceEndsAt,
		subscription.SuspendedAt,
		subscription.NextBillingDate,
		subscription.RequiredPlanCode,
		subscription.RequiredBillingFrequency,
		subscription.ReplacesSubscriptionID,
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListByCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string, limit int) ([]*domain.Subscription, error) {
	var subscriptions []*domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE customer_id = ? AND app_code = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		customerID,
		appCode,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) FindActive(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE customer_id = ? AND app_code = ? AND status = ?
		 ORDER BY start_date DESC
		 LIMIT 1`,
		customerID,
		appCode,
		domain.StatusActive,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindPendingPayment(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string) (*domain.Subscription, error) {
	var subscription domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE customer_id = ? AND app_code = ? AND status = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		customerID,
		appCode,
		domain.StatusPendingPayment,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) ListTrialExpired(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.Subscription, error) {
	var subscriptions []*domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at < ?
		 ORDER BY trial_ends_at ASC, id ASC
		 LIMIT ?`,
		domain.StatusTrialActive,
		now,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) ListGraceExpired(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]*domain.Subscription, error) {
	var subscriptions []*domain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM subscriptions
		 WHERE status = ? AND grace_ends_at IS NOT NULL AND grace_ends_at < ?
		 ORDER BY grace_ends_at ASC, id ASC
		 LIMIT ?`,
		domain.StatusPaymentRequired,
		now,
		limit,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) MarkPaymentRequired(ctx context.Context, db *gorm.DB, id snowflake.ID, now, graceEndsAt time.Time, planCode, billingFrequency string) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, required_plan_code = ?, required_billing_frequency = ?, grace_ends_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusPaymentRequired,
		planCode,
		billingFrequency,
		graceEndsAt,
		now,
		id,
		domain.StatusTrialActive,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) MarkSuspended(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, suspended_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusSuspended,
		now,
		now,
		id,
		domain.StatusPaymentRequired,
	)
	return result.RowsAffected, result.Error
}
