package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, session *Session) error
	FindByTokenHash(ctx context.Context, db *gorm.DB, tokenHash string) (*Session, error)
	RevokeAllForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, appCode string, at time.Time) (int64, error)
	Revoke(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
	UpdateLastSeen(ctx context.Context, db *gorm.DB, id snowflake.ID, at time.Time) error
}
