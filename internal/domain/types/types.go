// Package types contains the JSON payloads exchanged with API clients.
package types

import "time"

// Game is a registry entry as exposed to clients.
type Game struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	LowerIsBetter bool    `json:"lowerIsBetter"`
	MinScore      float64 `json:"minScore"`
	MaxScore      float64 `json:"maxScore"`
}

// SubmitScoreRequest is the body of POST /api/scores.
type SubmitScoreRequest struct {
	GameID       string   `json:"gameId"`
	Value        *float64 `json:"value"`
	SubmissionID string   `json:"submissionId,omitempty"`
	// PreviousBest lets the client pass the best it already knows, avoiding a read before write.
	PreviousBest *float64 `json:"previousBest,omitempty"`
}

// SubmitScoreResponse reports the stored score and whether it beat the previous best.
type SubmitScoreResponse struct {
	ScoreID        string    `json:"scoreId,omitempty"`
	GameID         string    `json:"gameId"`
	Value          float64   `json:"value"`
	PreviousBest   *float64  `json:"previousBest"`
	IsNewHighScore bool      `json:"isNewHighScore"`
	Duplicate      bool      `json:"duplicate"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// BestScoreResponse is the subject's personal best for a game.
type BestScoreResponse struct {
	GameID    string   `json:"gameId"`
	BestScore *float64 `json:"bestScore"`
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank           int       `json:"rank"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username,omitempty"`
	Tag            string    `json:"tag,omitempty"`
	UniversityID   string    `json:"universityId,omitempty"`
	UniversityName string    `json:"universityName,omitempty"`
	CountryCode    string    `json:"countryCode,omitempty"`
	BestScore      float64   `json:"bestScore"`
	AchievedAt     time.Time `json:"achievedAt"`
}

// LeaderboardResponse is the body of GET /api/leaderboard.
type LeaderboardResponse struct {
	GameID        string             `json:"gameId"`
	Scope         string             `json:"scope"`
	Entries       []LeaderboardEntry `json:"entries"`
	ViewerRank    *int               `json:"viewerRank,omitempty"`
	ViewerScore   *float64           `json:"viewerScore,omitempty"`
	TotalEntrants int                `json:"totalEntrants"`
}

// UniversityEntry is one row of GET /api/universities/top.
type UniversityEntry struct {
	Rank         int     `json:"rank"`
	UniversityID string  `json:"universityId"`
	Name         string  `json:"name"`
	CountryCode  string  `json:"countryCode"`
	Players      int     `json:"players"`
	AverageBest  float64 `json:"averageBest"`
	TopScore     float64 `json:"topScore"`
}

// DistributionPoint is one sample of the chart curve.
type DistributionPoint struct {
	Score     float64 `json:"score"`
	Frequency float64 `json:"frequency"`
}

// DistributionResponse is the body of GET /api/distribution.
type DistributionResponse struct {
	GameID              string              `json:"gameId"`
	Distribution        []DistributionPoint `json:"distribution"`
	UserPercentile      *float64            `json:"userPercentile"`
	UserScore           *float64            `json:"userScore"`
	TotalScores         int                 `json:"totalScores"`
	Mean                float64             `json:"mean"`
	StdDev              float64             `json:"stdDev"`
	MaxLeaderboardScore *float64            `json:"maxLeaderboardScore"`
}

// MigrateGuestRequest is the body of POST /api/guest/migrate.
type MigrateGuestRequest struct {
	GuestID string `json:"guestId"`
}

// MigrateGuestResponse reports how many rows were rebound.
type MigrateGuestResponse struct {
	Migrated int `json:"migrated"`
}

// ProfileRequest is the body of PUT /api/profile.
type ProfileRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// ProfileResponse is a stored profile.
type ProfileResponse struct {
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	Tag            string    `json:"tag,omitempty"`
	CountryCode    string    `json:"countryCode,omitempty"`
	UniversityID   string    `json:"universityId,omitempty"`
	UniversityName string    `json:"universityName,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
