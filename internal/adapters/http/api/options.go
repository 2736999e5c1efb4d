package api

import (
	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithVerifier enables bearer-token authentication.
func WithVerifier(v *auth.Verifier) Option {
	return func(s *Server) {
		s.verifier = v
	}
}

// WithRateLimiter limits write routes per client IP.
func WithRateLimiter(l *auth.IPRateLimiter) Option {
	return func(s *Server) {
		s.limiter = l
	}
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// WithMaxBodyBytes caps JSON request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
