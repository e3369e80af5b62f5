package domain

import (
	"context"

	sessiondomain "github.com/debacu/evalgate/internal/session/domain"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	AppCode  string `json:"app_code"`
}

// UserPayload is the client-facing account summary returned at login.
type UserPayload struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id"`
	Username      string `json:"username"`
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Plan          string `json:"plan"`
	PlanStartDate string `json:"plan_start_date"`
	MonthlyFee    int64  `json:"monthly_fee"`
	IsAdmin       bool   `json:"is_admin"`
}

type LoginResult struct {
	OK           bool        `json:"ok"`
	AuthEmail    string      `json:"auth_email"`
	SessionToken string      `json:"session_token"`
	User         UserPayload `json:"user"`
}

type Service interface {
	// Login authenticates a username/password pair, applies the
	// subscription gate for non-admin accounts, and issues a session.
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to its live session.
	Authenticate(ctx context.Context, rawToken string) (*sessiondomain.Session, error)
}
