// Package loadgen seeds a running Goose Trials API with synthetic players and
// checks that the resulting leaderboards are ordered correctly.
package loadgen

import (
	"sync/atomic"
	"time"
)

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL         string        // Base URL of the service
	Players         int           // Number of synthetic players
	ScoresPerPlayer int           // Scores each player submits per game
	Games           []string      // Games to play; empty means every game
	Workers         int           // Number of concurrent submitters
	Timeout         time.Duration // HTTP request timeout
	// JWTSecret, when set, signs user tokens so players get profiles and appear on
	// leaderboards. Without it every player is a guest.
	JWTSecret   string
	JWTAudience string
	Seed        uint64 // Faker seed; 0 picks a random one
	Verbose     bool
}

// Stats holds run statistics. Counters are updated concurrently.
type Stats struct {
	PlayersCreated   int
	ProfilesCreated  atomic.Int64
	ProfilesFailed   atomic.Int64
	ScoresSubmitted  atomic.Int64
	ScoresAccepted   atomic.Int64
	NewHighScores    atomic.Int64
	ScoresFailed     atomic.Int64
	RateLimited      atomic.Int64
	LeaderboardsRead int
	StartTime        time.Time
	Duration         time.Duration
}
