package channel

import "errors"

var (
	ErrMissingAuth     = errors.New("missing bot framework auth")
	ErrUnauthorized    = errors.New("invalid bot framework token")
	ErrInvalidActivity = errors.New("invalid activity")
)
