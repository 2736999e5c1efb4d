package cache

import "time"

const defaultTTL = 30 * time.Second

// Option applies a configuration option to the RedisCache.
type Option func(*RedisCache)

// WithTTL sets how long payloads live.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPassword sets the redis password.
func WithPassword(password string) Option {
	return func(c *RedisCache) {
		c.password = password
	}
}

// WithDB selects the redis logical database.
func WithDB(db int) Option {
	return func(c *RedisCache) {
		if db >= 0 {
			c.db = db
		}
	}
}
