package database

import "errors"

// Sentinel kinds for database errors.
var (
	ErrConnect   = errors.New("database connection failed")
	ErrMigration = errors.New("database migration failed")
)
