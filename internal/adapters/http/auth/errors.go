package auth

import "errors"

var (
	// ErrInvalidToken is returned when the token is malformed or its claims are unusable.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInvalidSignature is returned when the token signature does not verify.
	ErrInvalidSignature = errors.New("invalid token signature")

	// ErrInvalidGuestID is returned when X-Guest-ID is not a UUID.
	ErrInvalidGuestID = errors.New("guest id must be a UUID")

	// ErrUnauthenticated is returned when a route needs a signed-in user.
	ErrUnauthenticated = errors.New("authentication required")
)
