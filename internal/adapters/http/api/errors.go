package api

import (
	"errors"
	"net/http"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	service "github.com/willcagas/goose-trials-sub001/internal/app"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/internal/domain/moderation"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrMissingGame = errors.New("game query parameter is required")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// classify maps a domain error to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, games.ErrUnknownGame):
		return http.StatusNotFound, "unknown_game"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidScore):
		return http.StatusBadRequest, "invalid_score"
	case errors.Is(err, model.ErrInvalidSubject):
		return http.StatusBadRequest, "invalid_subject"
	case errors.Is(err, service.ErrInvalidGuestID), errors.Is(err, auth.ErrInvalidGuestID):
		return http.StatusBadRequest, "invalid_guest_id"
	case errors.Is(err, service.ErrInvalidCountry):
		return http.StatusBadRequest, "invalid_country"
	case errors.Is(err, repository.ErrInvalidScope):
		return http.StatusBadRequest, "invalid_scope"
	case errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "invalid_limit"
	case errors.Is(err, moderation.ErrUsernameLength),
		errors.Is(err, moderation.ErrUsernameCharset),
		errors.Is(err, moderation.ErrUsernameBanned):
		return http.StatusBadRequest, "invalid_username"
	case errors.Is(err, repository.ErrUsernameTaken):
		return http.StatusConflict, "username_taken"
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusUnauthorized, "token_expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrInvalidSignature),
		errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrMissingGame):
		return http.StatusBadRequest, "bad_request"
	}
	return http.StatusInternalServerError, "internal_error"
}
