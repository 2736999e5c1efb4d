package games

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrUnknownGame   = errors.New("unknown game")
	ErrDuplicateGame = errors.New("duplicate game id")
	ErrInvalidGame   = errors.New("invalid game definition")
)
