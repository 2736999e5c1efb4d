// Package service wires the score comparator, the distribution estimator and the
// persistence adapters into the operations the HTTP API exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/cache"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/mq/queue"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/mq/worker"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	"github.com/willcagas/goose-trials-sub001/internal/domain/dedupe"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/internal/domain/moderation"
	"github.com/willcagas/goose-trials-sub001/internal/domain/scoring"
	"github.com/willcagas/goose-trials-sub001/internal/domain/stats"
	"github.com/willcagas/goose-trials-sub001/internal/domain/types"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
	"github.com/willcagas/goose-trials-sub001/pkg/metrics"
)

// Service is the score API's application layer. Writes go straight to the store;
// cache invalidation runs on a worker pool fed by a bounded queue.
type Service struct {
	mu sync.RWMutex

	registry   *games.Registry
	comparator *scoring.Comparator
	store      repository.Store
	cache      cache.Cache
	deduper    dedupe.Deduper[types.SubmitScoreResponse]
	queue      *queue.InMemoryQueue
	pool       *worker.Pool
	rules      *moderation.Rules

	workerCount  int
	queueSize    int
	dedupeSize   int
	curvePoints  int
	defaultLimit int
	maxLimit     int
	userTags     map[string]string
	extraBanned  []string

	logger  logger.Logger
	started bool
	stopped bool
}

var _ worker.Handler = (*Service)(nil)

// New builds a service. The worker pool is created but idle until Start.
func New(opts ...Option) *Service {
	s := &Service{
		registry:     games.Default(),
		cache:        cache.NopCache{},
		queueSize:    1024,
		dedupeSize:   50000,
		curvePoints:  stats.DefaultPoints,
		defaultLimit: 25,
		maxLimit:     100,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.comparator = scoring.NewComparator(s.registry)
	s.rules = moderation.NewRules(append(moderation.DefaultBannedTerms(), s.extraBanned...), s.userTags)
	s.deduper = dedupe.NewInMemoryDeduper[types.SubmitScoreResponse](dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s)
	return s
}

// Start launches the post-commit workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	s.pool.Start(ctx)
	s.started = true
	s.logger.Info(ctx, "service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("games", s.registry.Len()))
	return nil
}

// Stop drains queued events and waits for the workers, bounded by ctx.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}
	s.stopped = true
	if !s.started {
		return s.queue.Close()
	}
	if err := s.pool.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "service stopped")
	return nil
}

// Games lists the registry in display order.
func (s *Service) Games() []types.Game {
	all := s.registry.All()
	out := make([]types.Game, 0, len(all))
	for _, g := range all {
		out = append(out, types.Game{
			ID:            g.ID,
			Name:          g.Name,
			Unit:          g.Unit,
			LowerIsBetter: g.LowerIsBetter,
			MinScore:      g.Submit.Min,
			MaxScore:      g.Submit.Max,
		})
	}
	return out
}

// Submission is one score attempt.
type Submission struct {
	GameID  string
	Subject model.Subject
	Value   float64
	// SubmissionID makes retries idempotent per subject when set.
	SubmissionID string
	// PreviousBest, when set by the client, skips the best-score read.
	PreviousBest *float64
}

// SubmitScore validates and stores a score and reports whether it beats the subject's previous best.
func (s *Service) SubmitScore(ctx context.Context, sub Submission) (types.SubmitScoreResponse, error) {
	g, err := s.registry.Lookup(sub.GameID)
	if err != nil {
		return types.SubmitScoreResponse{}, err
	}
	if err := sub.Subject.Validate(); err != nil {
		metrics.RecordScoreSubmitted(g.ID, "rejected")
		return types.SubmitScoreResponse{}, err
	}
	if err := validateValue(g, sub.Value); err != nil {
		metrics.RecordScoreSubmitted(g.ID, "rejected")
		return types.SubmitScoreResponse{}, err
	}

	// A retry gets the committed response of the first attempt. A concurrent
	// retry waits for that attempt to commit or fail.
	var ticket *dedupe.Ticket[types.SubmitScoreResponse]
	if sub.SubmissionID != "" {
		t, prev, err := s.deduper.Claim(ctx, sub.Subject.Key()+"|"+sub.SubmissionID)
		if err != nil {
			return types.SubmitScoreResponse{}, fmt.Errorf("await duplicate submission: %w", err)
		}
		if t == nil {
			metrics.RecordScoreSubmitted(g.ID, "duplicate")
			prev.Duplicate = true
			return prev, nil
		}
		ticket = t
		defer ticket.Release()
	}

	previous := sub.PreviousBest
	if previous != nil && (math.IsNaN(*previous) || math.IsInf(*previous, 0)) {
		previous = nil
	}
	if previous == nil {
		previous, err = s.store.BestScore(ctx, sub.Subject, g.ID, g.LowerIsBetter)
		if err != nil {
			return types.SubmitScoreResponse{}, fmt.Errorf("read best score: %w", err)
		}
	}
	isNew, err := s.comparator.IsBetter(g.ID, sub.Value, previous)
	if err != nil {
		return types.SubmitScoreResponse{}, err
	}

	stored, err := s.store.InsertScore(ctx, model.Score{GameID: g.ID, Subject: sub.Subject, Value: sub.Value})
	if err != nil {
		return types.SubmitScoreResponse{}, fmt.Errorf("insert score: %w", err)
	}
	resp := types.SubmitScoreResponse{
		ScoreID:        stored.ID,
		GameID:         g.ID,
		Value:          stored.Value,
		PreviousBest:   previous,
		IsNewHighScore: isNew,
		RecordedAt:     stored.RecordedAt,
	}
	if ticket != nil {
		ticket.Commit(resp)
	}

	metrics.RecordScoreSubmitted(g.ID, "accepted")
	if isNew {
		metrics.RecordNewHighScore(g.ID)
	}

	event := model.ScoreEvent{
		ScoreID:      stored.ID,
		GameID:       g.ID,
		SubjectKey:   sub.Subject.Key(),
		Value:        stored.Value,
		NewHighScore: isNew,
		RecordedAt:   stored.RecordedAt,
	}
	if err := s.queue.Enqueue(ctx, event); err != nil {
		// The score is committed; stale cached reads expire on their TTL.
		s.logger.Warn(ctx, "score event not queued",
			logger.String("game", g.ID),
			logger.String("score_id", stored.ID),
			logger.Error(err))
	}

	return resp, nil
}

func validateValue(g games.Game, v float64) error {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return fmt.Errorf("%w: value must be a finite number", ErrInvalidScore)
	case v < 0:
		return fmt.Errorf("%w: value must not be negative", ErrInvalidScore)
	case !g.Submit.Contains(v):
		return fmt.Errorf("%w: %s accepts %g to %g %s", ErrInvalidScore, g.ID, g.Submit.Min, g.Submit.Max, g.Unit)
	}
	return nil
}

// BestScore returns the subject's personal best, or nil before their first score.
func (s *Service) BestScore(ctx context.Context, subject model.Subject, gameID string) (types.BestScoreResponse, error) {
	g, err := s.registry.Lookup(gameID)
	if err != nil {
		return types.BestScoreResponse{}, err
	}
	if err := subject.Validate(); err != nil {
		return types.BestScoreResponse{}, err
	}
	best, err := s.store.BestScore(ctx, subject, g.ID, g.LowerIsBetter)
	if err != nil {
		return types.BestScoreResponse{}, fmt.Errorf("read best score: %w", err)
	}
	return types.BestScoreResponse{GameID: g.ID, BestScore: best}, nil
}

// LeaderboardRequest selects a ranked view of a game.
type LeaderboardRequest struct {
	GameID     string
	Scope      string
	ScopeValue string
	Limit      int
	// Viewer, when set, gets their own rank even outside the returned rows.
	Viewer *model.Subject
}

// Leaderboard ranks users by their best score. Tied bests share a rank.
func (s *Service) Leaderboard(ctx context.Context, req LeaderboardRequest) (types.LeaderboardResponse, error) {
	g, err := s.registry.Lookup(req.GameID)
	if err != nil {
		return types.LeaderboardResponse{}, err
	}
	scope, err := repository.ParseScope(req.Scope)
	if err != nil {
		return types.LeaderboardResponse{}, err
	}
	q := repository.LeaderboardQuery{
		GameID:        g.ID,
		LowerIsBetter: g.LowerIsBetter,
		Scope:         scope,
		ScopeValue:    strings.TrimSpace(req.ScopeValue),
		Limit:         s.clampLimit(req.Limit),
	}
	if q.Scope == repository.ScopeCountry {
		q.ScopeValue = strings.ToUpper(q.ScopeValue)
	}
	if q.Scope != repository.ScopeGlobal && q.ScopeValue == "" && req.Viewer != nil && !req.Viewer.IsGuest() {
		q.ScopeValue = s.viewerScopeValue(ctx, req.Viewer.UserID, q.Scope)
	}

	key := cache.Key(g.ID, "leaderboard", string(q.Scope), q.ScopeValue, strconv.Itoa(q.Limit))
	resp, err := cached(ctx, s, key, func() (types.LeaderboardResponse, error) {
		rows, err := s.store.Leaderboard(ctx, q)
		if err != nil {
			return types.LeaderboardResponse{}, err
		}
		total, err := s.store.CountBetter(ctx, q, worstValue(g))
		if err != nil {
			return types.LeaderboardResponse{}, err
		}
		entries := make([]types.LeaderboardEntry, 0, len(rows))
		for _, r := range rows {
			entries = append(entries, types.LeaderboardEntry{
				Rank:           r.Rank,
				UserID:         r.UserID,
				Username:       r.Username,
				Tag:            s.rules.Tag(r.UserID),
				UniversityID:   r.UniversityID,
				UniversityName: r.UniversityName,
				CountryCode:    r.CountryCode,
				BestScore:      r.BestScore,
				AchievedAt:     r.AchievedAt,
			})
		}
		return types.LeaderboardResponse{
			GameID:        g.ID,
			Scope:         string(q.Scope),
			Entries:       entries,
			TotalEntrants: total,
		}, nil
	})
	if err != nil {
		return types.LeaderboardResponse{}, err
	}

	if req.Viewer != nil && req.Viewer.Validate() == nil {
		best, err := s.store.BestScore(ctx, *req.Viewer, g.ID, g.LowerIsBetter)
		if err != nil {
			return types.LeaderboardResponse{}, fmt.Errorf("read viewer best: %w", err)
		}
		if best != nil {
			better, err := s.store.CountBetter(ctx, q, *best)
			if err != nil {
				return types.LeaderboardResponse{}, err
			}
			rank := better + 1
			resp.ViewerRank = &rank
			resp.ViewerScore = best
		}
	}
	return resp, nil
}

func (s *Service) clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultLimit
	case limit > s.maxLimit:
		return s.maxLimit
	default:
		return limit
	}
}

// viewerScopeValue resolves "my country" or "my university" from the viewer's profile.
func (s *Service) viewerScopeValue(ctx context.Context, userID string, scope repository.Scope) string {
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return ""
	}
	if scope == repository.ScopeCountry {
		return p.CountryCode
	}
	return p.UniversityID
}

// worstValue loses to every real score, so counting scores better than it counts everyone.
func worstValue(g games.Game) float64 {
	if g.LowerIsBetter {
		return math.Inf(1)
	}
	return math.Inf(-1)
}

// TopUniversities ranks universities by the mean of their users' bests.
func (s *Service) TopUniversities(ctx context.Context, gameID string, limit int) ([]types.UniversityEntry, error) {
	g, err := s.registry.Lookup(gameID)
	if err != nil {
		return nil, err
	}
	limit = s.clampLimit(limit)

	key := cache.Key(g.ID, "universities", strconv.Itoa(limit))
	return cached(ctx, s, key, func() ([]types.UniversityEntry, error) {
		rows, err := s.store.TopUniversities(ctx, g.ID, g.LowerIsBetter, limit)
		if err != nil {
			return nil, err
		}
		out := make([]types.UniversityEntry, 0, len(rows))
		for _, r := range rows {
			out = append(out, types.UniversityEntry{
				Rank:         r.Rank,
				UniversityID: r.UniversityID,
				Name:         r.Name,
				CountryCode:  r.CountryCode,
				Players:      r.Players,
				AverageBest:  r.AverageBest,
				TopScore:     r.TopScore,
			})
		}
		return out, nil
	})
}

// Distribution estimates the game's score curve and, when subject is set, where
// the subject's representative score falls in it.
func (s *Service) Distribution(ctx context.Context, gameID string, subject *model.Subject) (types.DistributionResponse, error) {
	g, err := s.registry.Lookup(gameID)
	if err != nil {
		return types.DistributionResponse{}, err
	}
	if subject != nil && subject.Validate() != nil {
		subject = nil
	}

	viewer := "anonymous"
	if subject != nil {
		viewer = subject.Key()
	}
	key := cache.Key(g.ID, "distribution", viewer, strconv.Itoa(s.curvePoints))
	return cached(ctx, s, key, func() (types.DistributionResponse, error) {
		return s.distribution(ctx, g, subject)
	})
}

func (s *Service) distribution(ctx context.Context, g games.Game, subject *model.Subject) (types.DistributionResponse, error) {
	scores, err := s.store.GameScores(ctx, g.ID)
	if err != nil {
		return types.DistributionResponse{}, fmt.Errorf("read game scores: %w", err)
	}
	population, fellBack := stats.FilterPlausible(scores, g.Plausible)
	if fellBack {
		metrics.RecordFilterFallback(g.ID)
		s.logger.Debug(ctx, "plausible filter discarded",
			logger.String("game", g.ID), logger.Int("samples", len(scores)))
	}

	var userScore *float64
	if subject != nil {
		values, err := s.store.SubjectScores(ctx, *subject, g.ID)
		if err != nil {
			return types.DistributionResponse{}, fmt.Errorf("read subject scores: %w", err)
		}
		if rep, ok := scoring.Representative(g, values); ok {
			userScore = &rep
		}
	}

	d := stats.Estimate(stats.Input{
		Scores:        population,
		Subject:       userScore,
		LowerIsBetter: g.LowerIsBetter,
		Points:        s.curvePoints,
		Chart:         g.Chart,
	})
	metrics.RecordDistribution(g.ID, d.Degenerate())

	points := make([]types.DistributionPoint, 0, len(d.Curve))
	for _, p := range d.Curve {
		points = append(points, types.DistributionPoint{Score: p.X, Frequency: p.Y})
	}
	resp := types.DistributionResponse{
		GameID:         g.ID,
		Distribution:   points,
		UserPercentile: d.Percentile,
		UserScore:      userScore,
		TotalScores:    d.Count,
		Mean:           d.Mean,
		StdDev:         d.StdDev,
	}
	if d.Count == 0 {
		resp.UserScore = nil
	}

	top, err := s.store.Leaderboard(ctx, repository.LeaderboardQuery{
		GameID:        g.ID,
		LowerIsBetter: g.LowerIsBetter,
		Scope:         repository.ScopeGlobal,
		Limit:         1,
	})
	if err != nil {
		return types.DistributionResponse{}, err
	}
	if len(top) > 0 {
		best := top[0].BestScore
		resp.MaxLeaderboardScore = &best
	}
	return resp, nil
}

// MigrateGuest rebinds every score of guestID to userID. Repeating it moves nothing.
func (s *Service) MigrateGuest(ctx context.Context, guestID, userID string) (types.MigrateGuestResponse, error) {
	if _, err := uuid.Parse(guestID); err != nil {
		return types.MigrateGuestResponse{}, ErrInvalidGuestID
	}
	if strings.TrimSpace(userID) == "" {
		return types.MigrateGuestResponse{}, fmt.Errorf("%w: user id required", ErrInvalidSubject)
	}

	moved, err := s.store.MigrateGuestScores(ctx, guestID, userID)
	if err != nil {
		return types.MigrateGuestResponse{}, fmt.Errorf("migrate guest scores: %w", err)
	}
	metrics.RecordGuestMigration(moved)
	s.logger.Info(ctx, "guest scores migrated",
		logger.String("guest_id", guestID),
		logger.String("user_id", userID),
		logger.Int("moved", moved))
	if moved > 0 {
		s.invalidateAll(ctx)
	}
	return types.MigrateGuestResponse{Migrated: moved}, nil
}

// UpsertProfile validates the username and binds a university from the email domain.
func (s *Service) UpsertProfile(ctx context.Context, userID string, req types.ProfileRequest) (types.ProfileResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return types.ProfileResponse{}, fmt.Errorf("%w: user id required", ErrInvalidSubject)
	}
	username := strings.TrimSpace(req.Username)
	if err := s.rules.ValidateUsername(username); err != nil {
		return types.ProfileResponse{}, err
	}
	country := strings.ToUpper(strings.TrimSpace(req.CountryCode))
	if country != "" && !isCountryCode(country) {
		return types.ProfileResponse{}, ErrInvalidCountry
	}

	p := model.Profile{UserID: userID, Username: username, CountryCode: country}
	if at := strings.LastIndexByte(req.Email, '@'); at >= 0 {
		u, err := s.store.FindUniversityByDomain(ctx, req.Email[at+1:])
		switch {
		case err == nil:
			p.UniversityID = u.ID
			if p.CountryCode == "" {
				p.CountryCode = u.CountryCode
			}
		case !errors.Is(err, repository.ErrNotFound):
			return types.ProfileResponse{}, fmt.Errorf("find university: %w", err)
		}
	}

	saved, err := s.store.UpsertProfile(ctx, p)
	if err != nil {
		return types.ProfileResponse{}, err
	}
	s.invalidateAll(ctx)
	return s.profileResponse(ctx, saved), nil
}

// Profile returns a stored profile.
func (s *Service) Profile(ctx context.Context, userID string) (types.ProfileResponse, error) {
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return types.ProfileResponse{}, err
	}
	return s.profileResponse(ctx, p), nil
}

func (s *Service) profileResponse(ctx context.Context, p model.Profile) types.ProfileResponse {
	resp := types.ProfileResponse{
		UserID:       p.UserID,
		Username:     p.Username,
		Tag:          s.rules.Tag(p.UserID),
		CountryCode:  p.CountryCode,
		UniversityID: p.UniversityID,
		UpdatedAt:    p.UpdatedAt,
	}
	if p.UniversityID != "" {
		if u, err := s.store.University(ctx, p.UniversityID); err == nil {
			resp.UniversityName = u.Name
		}
	}
	return resp
}

func isCountryCode(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, c := range s {
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// HandleScoreEvent drops cached read payloads for the event's game.
func (s *Service) HandleScoreEvent(ctx context.Context, e model.ScoreEvent) error {
	if err := s.cache.InvalidateGame(ctx, e.GameID); err != nil {
		return fmt.Errorf("invalidate %s: %w", e.GameID, err)
	}
	if e.NewHighScore {
		s.logger.Debug(ctx, "new high score",
			logger.String("game", e.GameID),
			logger.String("subject", e.SubjectKey),
			logger.Float64("value", e.Value))
	}
	return nil
}

func (s *Service) invalidateAll(ctx context.Context) {
	for _, id := range s.registry.IDs() {
		if err := s.cache.InvalidateGame(ctx, id); err != nil {
			s.logger.Warn(ctx, "cache invalidation failed", logger.String("game", id), logger.Error(err))
		}
	}
}

// cached reads key from the cache or computes and stores it. Cache failures only degrade to a miss.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var v T
	hit, err := s.cache.Get(ctx, key, &v)
	switch {
	case err != nil:
		metrics.RecordCacheResult("error")
		s.logger.Warn(ctx, "cache read failed", logger.String("key", key), logger.Error(err))
	case hit:
		metrics.RecordCacheResult("hit")
		return v, nil
	default:
		metrics.RecordCacheResult("miss")
	}

	v, err = load()
	if err != nil {
		return v, err
	}
	if err := s.cache.Set(ctx, key, v); err != nil {
		s.logger.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
	}
	return v, nil
}

// GetStats returns a snapshot of the service for the stats endpoint.
func (s *Service) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	started := s.started
	s.mu.RUnlock()

	out := map[string]any{
		"started":       started,
		"workers":       s.pool.Size(),
		"queue_length":  s.queue.Len(),
		"queue_size":    s.queueSize,
		"dedupe_size":   s.deduper.Size(),
		"games":         s.registry.Len(),
		"curve_points":  s.curvePoints,
		"max_page_size": s.maxLimit,
		"timestamp":     time.Now().UTC(),
	}
	if total, err := s.store.Count(ctx, ""); err == nil {
		out["total_scores"] = total
	} else {
		s.logger.Warn(ctx, "count scores failed", logger.Error(err))
	}
	return out
}
