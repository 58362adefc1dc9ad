package domain

import "errors"

var (
	// ErrNotFound signals an unknown token or id.
	ErrNotFound = errors.New("not found")

	// ErrCalendarUnavailable signals that the remote feed could not be
	// fetched (network failure, timeout or non-200 response).
	ErrCalendarUnavailable = errors.New("calendar unavailable")

	// ErrMalformedFeed signals that the remote feed could not be parsed.
	ErrMalformedFeed = errors.New("malformed calendar feed")

	ErrUnauthorized       = errors.New("not authorized")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)
