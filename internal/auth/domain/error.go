package domain

import "errors"

var ErrMissingCredentials = errors.New("missing_credentials")
