//go:build integration

// Package containers starts throwaway Postgres and Redis instances for integration tests.
package containers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eventdesk/backend/pkg/database"
)

// PostgresContainer is a migrated database shared by the tests of one package.
type PostgresContainer struct {
	Container testcontainers.Container
	Pool      *pgxpool.Pool
}

var (
	pgOnce sync.Once
	pg     *PostgresContainer
	pgErr  error
)

// Postgres starts the container on first use and returns the shared instance.
// Ryuk removes the container when the test binary exits.
func Postgres(t *testing.T) *PostgresContainer {
	t.Helper()
	pgOnce.Do(func() { pg, pgErr = startPostgres(context.Background()) })
	if pgErr != nil {
		t.Fatalf("postgres container: %v", pgErr)
	}
	return pg
}

func startPostgres(ctx context.Context) (*PostgresContainer, error) {
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("eventdesk"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connection string: %w", err)
	}
	pool, err := database.NewPostgresPool(ctx, dsn, database.PoolOptions{MaxConns: 20}, nil)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := database.Migrate(ctx, pool, nil); err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &PostgresContainer{Container: container, Pool: pool}, nil
}

// Truncate empties the given tables, cascading to dependents.
func (p *PostgresContainer) Truncate(ctx context.Context, tables ...string) error {
	_, err := p.Pool.Exec(ctx, "TRUNCATE "+strings.Join(tables, ", ")+" CASCADE")
	return err
}

// Reset empties every application table.
func (p *PostgresContainer) Reset(ctx context.Context) error {
	return p.Truncate(ctx, "email_logs", "registrations", "events", "user_roles", "users")
}
