package service

import (
	"github.com/willcagas/goose-trials-sub001/internal/adapters/cache"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	"github.com/willcagas/goose-trials-sub001/internal/domain/games"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the persistence backend. Defaults to an in-memory store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithCache sets the read-payload cache. Defaults to no caching.
func WithCache(c cache.Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithRegistry replaces the built-in game registry.
func WithRegistry(reg *games.Registry) Option {
	return func(s *Service) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// WithWorkerCount sets the number of post-commit workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the post-commit event queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many submission ids are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCurvePoints sets the number of distribution curve intervals.
func WithCurvePoints(points int) Option {
	return func(s *Service) {
		if points > 0 {
			s.curvePoints = points
		}
	}
}

// WithLeaderboardLimits sets the default and maximum number of ranked rows.
func WithLeaderboardLimits(defaultLimit, maxLimit int) Option {
	return func(s *Service) {
		if defaultLimit > 0 && maxLimit >= defaultLimit {
			s.defaultLimit = defaultLimit
			s.maxLimit = maxLimit
		}
	}
}

// WithUserTags sets display tags by user id.
func WithUserTags(tags map[string]string) Option {
	return func(s *Service) {
		s.userTags = tags
	}
}

// WithBannedTerms adds username terms on top of the built-in list.
func WithBannedTerms(terms []string) Option {
	return func(s *Service) {
		s.extraBanned = append(s.extraBanned, terms...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
