package api

import (
	"fmt"
	"net/http"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	service "github.com/willcagas/goose-trials-sub001/internal/app"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
)

// handleSubmitScore handles POST /api/scores. Guests submit with X-Guest-ID.
func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	subject := subjectOf(r)
	if subject == nil {
		s.writeError(w, r, fmt.Errorf("%w: sign in or send %s", auth.ErrUnauthenticated, auth.GuestHeader))
		return
	}

	var req types.SubmitScoreRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.GameID == "" {
		s.writeError(w, r, fmt.Errorf("%w: gameId is required", ErrBadRequest))
		return
	}
	if req.Value == nil {
		s.writeError(w, r, fmt.Errorf("%w: value must be a finite number", service.ErrInvalidScore))
		return
	}

	resp, err := s.deps.SubmitScore(r.Context(), service.Submission{
		GameID:       req.GameID,
		Subject:      *subject,
		Value:        *req.Value,
		SubmissionID: req.SubmissionID,
		PreviousBest: req.PreviousBest,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status := http.StatusCreated
	if resp.Duplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

// handleBestScore handles GET /api/scores/best?game=.
func (s *Server) handleBestScore(w http.ResponseWriter, r *http.Request) {
	game, err := gameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	subject := subjectOf(r)
	if subject == nil {
		s.writeError(w, r, fmt.Errorf("%w: sign in or send %s", auth.ErrUnauthenticated, auth.GuestHeader))
		return
	}
	resp, err := s.deps.BestScore(r.Context(), *subject, game)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
