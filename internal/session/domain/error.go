package domain

import "errors"

var (
	// ErrInvalidSession covers unknown, expired and revoked tokens so the
	// API cannot be used to probe which tokens ever existed.
	ErrInvalidSession  = errors.New("invalid_session")
	ErrSessionNotFound = errors.New("session_not_found")
)
