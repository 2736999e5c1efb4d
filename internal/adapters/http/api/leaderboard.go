package api

import (
	"net/http"

	service "github.com/willcagas/goose-trials-sub001/internal/app"
)

// handleLeaderboard handles GET /api/leaderboard?game=&scope=&value=&limit=.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	game, err := gameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	resp, err := s.deps.Leaderboard(r.Context(), service.LeaderboardRequest{
		GameID:     game,
		Scope:      q.Get("scope"),
		ScopeValue: q.Get("value"),
		Limit:      limit,
		Viewer:     subjectOf(r),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleTopUniversities handles GET /api/universities/top?game=&limit=.
func (s *Server) handleTopUniversities(w http.ResponseWriter, r *http.Request) {
	game, err := gameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.deps.TopUniversities(r.Context(), game, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
