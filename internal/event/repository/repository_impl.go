package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/event/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Append(ctx context.Context, db *gorm.DB, event *domain.LifecycleEvent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO lifecycle_events (id, subscription_id, customer_id, type, payload, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.SubscriptionID,
		event.CustomerID,
		event.Type,
		event.Payload,
		event.OccurredAt,
		event.CreatedAt,
	).Error
}

func (r *repo) ListBySubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID) ([]*domain.LifecycleEvent, error) {
	var events []*domain.LifecycleEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscription_id, customer_id, type, payload, occurred_at, created_at
		 FROM lifecycle_events WHERE subscription_id = ?
		 ORDER BY occurred_at ASC, id ASC`,
		subscriptionID,
	).Scan(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}
