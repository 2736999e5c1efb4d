//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewRedisCache(ctx, startRedis(t), WithTTL(time.Minute))
	require.NoError(t, err)
	defer c.Close()

	type payload struct {
		Mean float64 `json:"mean"`
	}

	require.NoError(t, c.Set(ctx, Key("reaction-time", "distribution"), payload{Mean: 212}))
	require.NoError(t, c.Set(ctx, Key("reaction-time", "leaderboard", "global"), payload{Mean: 1}))
	require.NoError(t, c.Set(ctx, Key("chimp-test", "distribution"), payload{Mean: 9}))

	var got payload
	hit, err := c.Get(ctx, Key("reaction-time", "distribution"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 212.0, got.Mean)

	require.NoError(t, c.InvalidateGame(ctx, "reaction-time"))

	hit, err = c.Get(ctx, Key("reaction-time", "distribution"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
	hit, err = c.Get(ctx, Key("reaction-time", "leaderboard", "global"), &got)
	require.NoError(t, err)
	assert.False(t, hit)

	hit, err = c.Get(ctx, Key("chimp-test", "distribution"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
}
