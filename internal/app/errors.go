package service

import (
	"errors"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
)

// Sentinel kinds returned by the service. Store and registry sentinels pass through wrapped.
var (
	ErrInvalidScore   = errors.New("invalid score")
	ErrInvalidSubject = model.ErrInvalidSubject
	ErrInvalidGuestID = errors.New("guest id must be a UUID")
	ErrInvalidCountry = errors.New("country code must be two letters")
)
