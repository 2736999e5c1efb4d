package auth

import "time"

// Option configures a Verifier.
type Option func(*Verifier)

// WithAudience requires tokens to carry aud.
func WithAudience(aud string) Option {
	return func(v *Verifier) {
		v.audience = aud
	}
}

// WithLeeway tolerates clock skew on exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d > 0 {
			v.leeway = d
		}
	}
}

// WithClock overrides time.Now for token validation.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}
