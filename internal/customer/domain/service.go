package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type CreateCustomerRequest struct {
	Username string
	Password string
	Name     string
	Email    string
	SectorID string
}

type Service interface {
	// Authenticate verifies a username and password pair. Credentials are
	// checked before the active flag so a disabled account with valid
	// credentials reports ErrCustomerInactive.
	Authenticate(ctx context.Context, username, password string) (*Customer, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Customer, error)
	Create(ctx context.Context, req CreateCustomerRequest) (*Customer, error)
}
