// Package testutil starts throwaway Postgres containers for store tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/database"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
)

// TestDatabase is a migrated Postgres instance owned by one test.
type TestDatabase struct {
	Container *postgres.PostgresContainer
	DB        *database.DB
	URL       string
}

// SetupTestDatabase starts a container, applies every migration and connects to it.
// The container is terminated when the test finishes.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, logger.Init())

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("goose_test"),
		postgres.WithUsername("goose"),
		postgres.WithPassword("goose"),
		postgres.BasicWaitStrategies(),
		testcontainers.WithLabels(map[string]string{
			"test":      "goose-trials-repository",
			"test-name": t.Name(),
		}),
	)
	require.NoError(t, err)

	td := &TestDatabase{Container: container}
	t.Cleanup(func() { td.cleanup(t) })

	td.URL, err = container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, database.MigrateUp(ctx, td.URL))

	td.DB, err = database.NewConnection(ctx, td.URL)
	require.NoError(t, err)
	return td
}

func (td *TestDatabase) cleanup(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if td.DB != nil {
		td.DB.Close()
	}
	if td.Container != nil {
		if err := td.Container.Terminate(ctx); err != nil {
			t.Logf("terminate test container: %v", err)
		}
	}
}
