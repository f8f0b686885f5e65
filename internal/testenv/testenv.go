//go:build integration

// Package testenv starts the containers integration tests run against.
package testenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/itsDrac/gemstone-auction/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const redisPassword = "testredispass"

// Postgres starts a migrated Postgres container and returns a pool on it. The
// container is terminated when the test ends.
func Postgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %s", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %s", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %s", err)
	}

	if err := db.Migrate(MigrationsURL(t), connStr); err != nil {
		t.Fatalf("failed to run migrations: %s", err)
	}

	pool, err := db.NewPool(ctx, connStr, 20)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %s", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// Redis starts a password protected Redis container and returns its address
// and password.
func Redis(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		Cmd:          []string{"redis-server", "--requirepass", redisPassword},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start redis container: %s", err)
	}
	t.Cleanup(func() {
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate redis container: %s", err)
		}
	})

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get redis host: %s", err)
	}
	mappedPort, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("failed to get redis port: %s", err)
	}
	return fmt.Sprintf("%s:%s", host, mappedPort.Port()), redisPassword
}

// NATS starts a JetStream enabled NATS server and returns its client URL.
func NATS(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "nats:2-alpine",
		ExposedPorts: []string{"4222/tcp"},
		Cmd:          []string{"-js"},
		WaitingFor: wait.ForLog("Server is ready").
			WithStartupTimeout(60 * time.Second),
	}
	natsContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start nats container: %s", err)
	}
	t.Cleanup(func() {
		if err := natsContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate nats container: %s", err)
		}
	})

	host, err := natsContainer.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get nats host: %s", err)
	}
	mappedPort, err := natsContainer.MappedPort(ctx, "4222")
	if err != nil {
		t.Fatalf("failed to get nats port: %s", err)
	}
	return fmt.Sprintf("nats://%s:%s", host, mappedPort.Port())
}

// MigrationsURL locates migrations/ by walking up to the module root.
func MigrationsURL(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %s", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return "file://" + filepath.Join(dir, "migrations")
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not find project root (go.mod)")
		}
		dir = parent
	}
}
