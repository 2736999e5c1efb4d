package database

import "time"

type options struct {
	maxConns    int32
	maxConnIdle time.Duration
}

// Option configures NewConnection.
type Option func(*options)

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = n
		}
	}
}

// WithMaxConnIdleTime closes connections idle for longer than d.
func WithMaxConnIdleTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.maxConnIdle = d
		}
	}
}
