package auth

import "errors"

var (
	// ErrMissingAPIKey is returned when the request carries no Authorization header.
	ErrMissingAPIKey = errors.New("missing Authorization header")

	// ErrMalformedAPIKey is returned when the header is not "Bearer <key>".
	ErrMalformedAPIKey = errors.New("invalid Authorization header format, expected 'Bearer <api_key>'")

	// ErrInvalidAPIKey is returned for unknown keys.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrForbidden is returned when a valid key is scoped to another user.
	ErrForbidden = errors.New("API key not allowed for this user")
)
