package api

import (
	"net/http"
	"strconv"
)

// handleDistribution handles GET /api/distribution?game=.
func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	game, err := gameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.deps.Distribution(r.Context(), game, subjectOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDistributionChart handles GET /api/distribution.png?game=.
func (s *Server) handleDistributionChart(w http.ResponseWriter, r *http.Request) {
	game, err := gameParam(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.deps.Distribution(r.Context(), game, subjectOf(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var unit string
	for _, g := range s.deps.Games() {
		if g.ID == resp.GameID {
			unit = g.Unit
		}
	}
	png, err := renderDistributionChart(resp, unit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
