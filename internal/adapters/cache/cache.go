// Package cache stores derived read payloads (leaderboards, distributions) keyed by game.
package cache

import (
	"context"
	"strings"
)

const keyPrefix = "goose"

// Cache is a best-effort JSON payload cache. Callers treat errors as misses.
type Cache interface {
	// Get decodes the payload at key into dst and reports whether it was present.
	Get(ctx context.Context, key string, dst any) (bool, error)
	// Set stores v at key until the configured TTL expires.
	Set(ctx context.Context, key string, v any) error
	// InvalidateGame drops every payload cached for gameID.
	InvalidateGame(ctx context.Context, gameID string) error
	Close() error
}

// Key builds a cache key scoped to a game: goose:{game}:part1:part2.
func Key(gameID string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(gameID)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

func gamePattern(gameID string) string {
	return Key(gameID) + ":*"
}

// NopCache never stores anything.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (NopCache) Set(context.Context, string, any) error         { return nil }
func (NopCache) InvalidateGame(context.Context, string) error   { return nil }
func (NopCache) Close() error                                   { return nil }
