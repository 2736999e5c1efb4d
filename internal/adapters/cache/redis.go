package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	pingTimeout = 5 * time.Second
	scanBatch   = 100
)

// RedisCache stores payloads as JSON strings with a TTL.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	password string
	db       int
}

var _ Cache = (*RedisCache)(nil)

// NewRedisCache connects to addr and verifies the connection with a ping.
func NewRedisCache(ctx context.Context, addr string, opts ...Option) (*RedisCache, error) {
	c := &RedisCache{ttl: defaultTTL}
	for _, opt := range opts {
		opt(c)
	}
	c.client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: c.password,
		DB:       c.db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.client.Ping(pingCtx).Err(); err != nil {
		_ = c.client.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", ErrUnavailable, addr, err)
	}
	return c, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: get %s: %v", ErrUnavailable, key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%w: decode %s: %v", ErrCodec, key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrCodec, key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

// InvalidateGame walks the game's keys with SCAN so a large keyspace never blocks redis.
func (c *RedisCache) InvalidateGame(ctx context.Context, gameID string) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, gamePattern(gameID), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("%w: scan %s: %v", ErrUnavailable, gameID, err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: del %s: %v", ErrUnavailable, gameID, err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
