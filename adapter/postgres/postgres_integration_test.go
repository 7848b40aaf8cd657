//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/quellabs/objectquel/adapter/postgres"
	"github.com/quellabs/objectquel/adapter/postgres/schema"
)

func TestExecutorFetchColumnAgainstRealDatabase(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("objectquel_test"),
		tcpostgres.WithUsername("objectquel"),
		tcpostgres.WithPassword("objectquel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, schema.Migrate(connStr))

	exec, err := postgres.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(exec.Close)

	_, err = exec.FetchColumn(ctx, `INSERT INTO categories (name) VALUES ($1)`, []any{"Widgets"})
	require.NoError(t, err)

	ids, err := exec.FetchColumn(ctx, `SELECT id FROM categories WHERE name = $1`, []any{"Widgets"})
	require.NoError(t, err)
	require.Len(t, ids, 1)

	none, err := exec.FetchColumn(ctx, `SELECT id FROM categories WHERE name = $1`, []any{"Missing"})
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestExecutorFetchColumnSurfacesSyntaxErrors(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("objectquel_test"),
		tcpostgres.WithUsername("objectquel"),
		tcpostgres.WithPassword("objectquel"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	exec, err := postgres.Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(exec.Close)

	_, err = exec.FetchColumn(ctx, `SELECT FROM nonexistent_table`, nil)
	require.Error(t, err)
}
