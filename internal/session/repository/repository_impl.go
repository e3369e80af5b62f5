package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/debacu/evalgate/internal/session/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, session *domain.Session) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO sessions (id, customer_id, app_code, customer_name, session_token_hash, expires_at, revoked_at, created_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.CustomerID,
		session.AppCode,
		session.CustomerName,
		session.SessionTokenHash,
		session.ExpiresAt,
		session.RevokedAt,
		session.CreatedAt,
		session.LastSeenAt,
	).Error
}

func (r *repo) FindByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*domain.Session, error) {
	var session domain.Session
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, app_code, customer_name, session_token_hash, expires_at, revoked_at, created_at, last_seen_at
		 FROM sessions WHERE session_token_hash = ?`,
		tokenHash,
	).Scan(&session).Error
	if err != nil {
		return nil, err
	}
	if session.ID == 0 {
		return nil, nil
	}
	return &session, nil
}

func (r *repo) RevokeAllForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = ?
		 WHERE customer_id = ? AND app_code = ? AND revoked_at IS NULL`,
		at,
		customerID,
		appCode,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`,
		at,
		id,
	).Error
}

func (r *repo) UpdateLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`,
		at,
		id,
	).Error
}
