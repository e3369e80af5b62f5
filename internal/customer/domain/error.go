package domain

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrCustomerInactive   = errors.New("customer_inactive")
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrEmailMissing       = errors.New("email_missing")
)
