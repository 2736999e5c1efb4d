package moderation

import "errors"

// Sentinel kinds for username validation.
var (
	ErrUsernameLength  = errors.New("username must be 3-20 characters")
	ErrUsernameCharset = errors.New("username may only contain letters, digits, '_', '.' and '-'")
	ErrUsernameBanned  = errors.New("username contains a disallowed term")
)
