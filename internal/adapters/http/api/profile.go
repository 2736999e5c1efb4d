package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
)

// handleMigrateGuest handles POST /api/guest/migrate. The body's guest id wins over X-Guest-ID.
func (s *Server) handleMigrateGuest(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	var req types.MigrateGuestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	guestID := strings.TrimSpace(req.GuestID)
	if guestID == "" {
		guestID = id.GuestID
	}
	if guestID == "" {
		s.writeError(w, r, fmt.Errorf("%w: guestId is required", ErrBadRequest))
		return
	}
	resp, err := s.deps.MigrateGuest(r.Context(), guestID, id.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handlePutProfile handles PUT /api/profile.
func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.deps.UpsertProfile(r.Context(), auth.FromContext(r.Context()).UserID, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGetProfile handles GET /api/profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.deps.Profile(r.Context(), auth.FromContext(r.Context()).UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
