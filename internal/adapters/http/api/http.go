// Package api exposes the score service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/swagger"
	service "github.com/willcagas/goose-trials-sub001/internal/app"
	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

const defaultMaxBodyBytes = 8 << 10

// Dependencies is the service surface the handlers call.
type Dependencies interface {
	Games() []types.Game
	SubmitScore(ctx context.Context, sub service.Submission) (types.SubmitScoreResponse, error)
	BestScore(ctx context.Context, subject model.Subject, gameID string) (types.BestScoreResponse, error)
	Leaderboard(ctx context.Context, req service.LeaderboardRequest) (types.LeaderboardResponse, error)
	TopUniversities(ctx context.Context, gameID string, limit int) ([]types.UniversityEntry, error)
	Distribution(ctx context.Context, gameID string, subject *model.Subject) (types.DistributionResponse, error)
	MigrateGuest(ctx context.Context, guestID, userID string) (types.MigrateGuestResponse, error)
	UpsertProfile(ctx context.Context, userID string, req types.ProfileRequest) (types.ProfileResponse, error)
	Profile(ctx context.Context, userID string) (types.ProfileResponse, error)
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats(ctx context.Context) map[string]any
}

var _ Dependencies = (*service.Service)(nil)

// Server wires HTTP routes for the score API.
type Server struct {
	deps         Dependencies
	stats        StatsProvider
	verifier     *auth.Verifier
	limiter      *auth.IPRateLimiter
	corsOrigins  []string
	maxBodyBytes int64
	logger       logger.Logger
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:         deps,
		stats:        stats,
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("http")
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(auth.CORSMiddleware(s.corsOrigins))
	r.Use(MetricsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	swagger.Register(r)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.identityMiddleware)

		r.Get("/games", s.handleGames)
		r.Get("/scores/best", s.handleBestScore)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/universities/top", s.handleTopUniversities)
		r.Get("/distribution", s.handleDistribution)
		r.Get("/distribution.png", s.handleDistributionChart)

		r.With(s.rateLimitMiddleware).Post("/scores", s.handleSubmitScore)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.Get("/profile", s.handleGetProfile)
			r.With(s.rateLimitMiddleware).Put("/profile", s.handlePutProfile)
			r.With(s.rateLimitMiddleware).Post("/guest/migrate", s.handleMigrateGuest)
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {code, message}. Internal errors are logged and not echoed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}
	return nil
}

func gameParam(r *http.Request) (string, error) {
	g := strings.TrimSpace(r.URL.Query().Get("game"))
	if g == "" {
		return "", ErrMissingGame
	}
	return g, nil
}

// intParam parses an optional integer query parameter; absent means 0.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", ErrBadRequest, name)
	}
	return n, nil
}

// subjectOf returns the caller's score identity, if any.
func subjectOf(r *http.Request) *model.Subject {
	sub, ok := auth.FromContext(r.Context()).Subject()
	if !ok {
		return nil
	}
	return &sub
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	metricsHandler().ServeHTTP(w, r)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.GetStats(r.Context()))
}

func (s *Server) handleGames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Games())
}

