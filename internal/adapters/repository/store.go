// Package repository defines the score store and its Postgres and in-memory implementations.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
	"github.com/willcagas/goose-trials-sub001/pkg/metrics"
)

// Scope narrows a leaderboard.
type Scope string

// Leaderboard scopes.
const (
	ScopeGlobal     Scope = "global"
	ScopeCountry    Scope = "country"
	ScopeUniversity Scope = "university"
)

// ParseScope validates a scope string. Empty means global.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeGlobal:
		return ScopeGlobal, nil
	case ScopeCountry, ScopeUniversity:
		return Scope(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// LeaderboardQuery selects one game's ranked best scores.
type LeaderboardQuery struct {
	GameID        string
	LowerIsBetter bool
	Scope         Scope
	// ScopeValue is the country code or university id; ignored for the global scope.
	ScopeValue string
	Limit      int
}

func (q LeaderboardQuery) validate(needLimit bool) error {
	if _, err := ParseScope(string(q.Scope)); err != nil {
		return err
	}
	if q.Scope != ScopeGlobal && q.Scope != "" && q.ScopeValue == "" {
		return fmt.Errorf("%w: %s scope needs a value", ErrInvalidScope, q.Scope)
	}
	if needLimit && q.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

// Entry is one leaderboard row.
type Entry struct {
	Rank           int
	UserID         string
	Username       string
	UniversityID   string
	UniversityName string
	CountryCode    string
	BestScore      float64
	AchievedAt     time.Time
}

// UniversityEntry is one row of the university ranking.
type UniversityEntry struct {
	Rank         int
	UniversityID string
	Name         string
	CountryCode  string
	Players      int
	AverageBest  float64
	TopScore     float64
}

// Store provides read/write access to scores, profiles and universities.
// Scores are append-only; best scores are always derived.
type Store interface {
	// InsertScore appends a score. Empty ids and timestamps are filled in.
	InsertScore(ctx context.Context, s model.Score) (model.Score, error)
	// BestScore returns the subject's best value for a game, or nil when they have none.
	BestScore(ctx context.Context, subject model.Subject, gameID string, lowerIsBetter bool) (*float64, error)
	// SubjectScores returns every value the subject recorded for a game.
	SubjectScores(ctx context.Context, subject model.Subject, gameID string) ([]float64, error)
	// GameScores returns every value recorded for a game.
	GameScores(ctx context.Context, gameID string) ([]float64, error)

	// Leaderboard returns users' best scores ranked by direction; equal values share a rank.
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]Entry, error)
	// CountBetter counts users in the query's scope whose best beats value.
	CountBetter(ctx context.Context, q LeaderboardQuery, value float64) (int, error)
	// TopUniversities ranks universities by the average of their users' bests.
	TopUniversities(ctx context.Context, gameID string, lowerIsBetter bool, limit int) ([]UniversityEntry, error)

	// MigrateGuestScores rebinds every guest score to the user and returns the number moved.
	MigrateGuestScores(ctx context.Context, guestID, userID string) (int, error)

	// FindUniversityByDomain matches an email domain or any of its parent domains.
	FindUniversityByDomain(ctx context.Context, domain string) (model.University, error)
	UpsertProfile(ctx context.Context, p model.Profile) (model.Profile, error)
	Profile(ctx context.Context, userID string) (model.Profile, error)
	University(ctx context.Context, id string) (model.University, error)

	// Count returns the number of scores recorded for a game, or for every game when gameID is empty.
	Count(ctx context.Context, gameID string) (int, error)
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(op, float64(time.Since(start).Microseconds())/1000)
}
