package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, request *AccessRequest) error
	// FindPendingByEmail returns the newest PENDING row for the email, or nil.
	FindPendingByEmail(ctx context.Context, db *gorm.DB, email string) (*AccessRequest, error)
}
