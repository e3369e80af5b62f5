package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type IssueRequest struct {
	CustomerID   snowflake.ID
	AppCode      string
	CustomerName string
}

// IssueResult carries the one-time raw token. Only its hash is stored.
type IssueResult struct {
	Session  *Session
	RawToken string
}

type Service interface {
	// Issue revokes every live session for the customer and app pair,
	// then creates a fresh one. One device per account.
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
	// Validate resolves a raw token to its live session and bumps last_seen_at.
	Validate(ctx context.Context, rawToken string) (*Session, error)
	Revoke(ctx context.Context, rawToken string) error
}
