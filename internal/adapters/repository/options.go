package repository

import (
	"time"

	"github.com/willcagas/goose-trials-sub001/internal/domain/model"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithUniversities replaces the seeded university list.
func WithUniversities(unis []model.University) Option {
	return func(s *MemoryStore) {
		s.universities = append([]model.University(nil), unis...)
	}
}

// WithClock overrides the time source used to stamp scores and profiles.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}
