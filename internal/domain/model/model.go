// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidSubject is returned when a subject does not carry exactly one identity.
var ErrInvalidSubject = errors.New("exactly one of user id or guest id must be set")

// Subject identifies who owns a score: an authenticated user or an anonymous guest, never both.
type Subject struct {
	UserID  string
	GuestID string
}

// User returns a subject for an authenticated user.
func User(id string) Subject { return Subject{UserID: id} }

// Guest returns a subject for a guest identity.
func Guest(id string) Subject { return Subject{GuestID: id} }

// Validate checks that exactly one identity is set.
func (s Subject) Validate() error {
	u, g := strings.TrimSpace(s.UserID) != "", strings.TrimSpace(s.GuestID) != ""
	if u == g {
		return ErrInvalidSubject
	}
	return nil
}

// IsGuest reports whether the subject is a guest.
func (s Subject) IsGuest() bool { return s.GuestID != "" && s.UserID == "" }

// ID returns whichever identity is set.
func (s Subject) ID() string {
	if s.UserID != "" {
		return s.UserID
	}
	return s.GuestID
}

// Key is a stable map key that keeps user and guest namespaces apart.
func (s Subject) Key() string {
	if s.UserID != "" {
		return "u:" + s.UserID
	}
	return "g:" + s.GuestID
}

// Score is one immutable game result. Best scores are always derived from these rows.
type Score struct {
	ID         string
	GameID     string
	Subject    Subject
	Value      float64
	RecordedAt time.Time
}

// University is a campus that users are grouped under.
type University struct {
	ID          string
	Name        string
	CountryCode string
	Domains     []string
}

// Profile is the public face of an authenticated user.
type Profile struct {
	UserID       string
	Username     string
	CountryCode  string
	UniversityID string
	UpdatedAt    time.Time
}

// ScoreEvent is published after a score has been committed.
type ScoreEvent struct {
	ScoreID      string
	GameID       string
	SubjectKey   string
	Value        float64
	NewHighScore bool
	RecordedAt   time.Time
}
