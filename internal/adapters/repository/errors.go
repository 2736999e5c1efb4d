package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidLimit  = errors.New("invalid limit")
	ErrInvalidScope  = errors.New("invalid leaderboard scope")
	ErrUsernameTaken = errors.New("username already taken")
)
