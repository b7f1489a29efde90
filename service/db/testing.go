package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStore wraps a Store with test cleanup functionality.
type TestStore struct {
	*Store
	// URL is the connection string of the test database.
	URL       string
	pool      *pgxpool.Pool
	container testcontainers.Container
}

// NewTestStore creates a migrated Store for tests. It connects to
// TEST_DATABASE_URL when set, otherwise it starts a throwaway Postgres
// container. Call Close when done.
func NewTestStore(t *testing.T) *TestStore {
	t.Helper()
	SkipIfNoTestDB(t)

	ctx := context.Background()

	var container testcontainers.Container
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		pg, err := postgres.Run(ctx, "postgres:15-alpine",
			postgres.WithDatabase("minisolscan_test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second),
			),
		)
		if err != nil {
			t.Skipf("Skipping database test: cannot start postgres container: %v", err)
		}
		container = pg

		dbURL, err = pg.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			_ = pg.Terminate(ctx)
			t.Fatalf("failed to get connection string: %v", err)
		}
	}

	pool, err := Connect(ctx, dbURL)
	if err != nil {
		if container != nil {
			_ = container.Terminate(ctx)
		}
		t.Fatalf("failed to connect to test database: %v", err)
	}

	store := NewStore(pool, nil)
	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return &TestStore{
		Store:     store,
		URL:       dbURL,
		pool:      pool,
		container: container,
	}
}

// Close closes the pool and terminates the container, if any.
func (ts *TestStore) Close() {
	ts.pool.Close()
	if ts.container != nil {
		_ = ts.container.Terminate(context.Background())
	}
}

// Cleanup removes all data from test tables.
// Call this in tests to ensure clean state between test cases.
func (ts *TestStore) Cleanup(t *testing.T) {
	t.Helper()

	ctx := context.Background()
	_, err := ts.pool.Exec(ctx, "TRUNCATE TABLE preferences, lookups RESTART IDENTITY")
	if err != nil {
		t.Fatalf("failed to cleanup test database: %v", err)
	}
}

// MustExec executes a SQL statement and fails the test if it errors.
// Useful for setting up test fixtures.
func (ts *TestStore) MustExec(t *testing.T, query string, args ...interface{}) {
	t.Helper()

	ctx := context.Background()
	_, err := ts.pool.Exec(ctx, query, args...)
	if err != nil {
		t.Fatalf("failed to execute query: %v\nQuery: %s", err, query)
	}
}

// SkipIfNoTestDB skips database tests in -short mode or when SKIP_DB_TESTS is set.
func SkipIfNoTestDB(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	if os.Getenv("SKIP_DB_TESTS") != "" {
		t.Skip("Skipping database test (SKIP_DB_TESTS is set)")
	}
}
