//go:build integration

package repository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/civicdesk/grievance-portal/internal/domain"
)

// Run with: go test -tags integration ./internal/repository/
// POSTGRES_TEST_DSN points at an existing database; otherwise a throwaway
// postgres container is started (needs a Docker daemon).
func newIntegrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		dsn = startPostgresContainer(ctx, t)
	}

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	for _, path := range []string{"../../migrations/accounts/0001_accounts.sql", "../../migrations/complaints/0001_complaints.sql"} {
		ddl, err := os.ReadFile(path)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(ddl))
		require.NoError(t, err)
	}
	return pool
}

func startPostgresContainer(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("grievance_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestIntegration_ConcurrentRedemption(t *testing.T) {
	pool := newIntegrationPool(t)
	store := NewCredentialStore(pool)
	ctx := context.Background()

	code, err := store.IssueAdminCode(ctx)
	require.NoError(t, err)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.RedeemAdminCode(ctx, code)
			assert.NoError(t, err)
			if ok {
				successes.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
}

func TestIntegration_DuplicateUsernameLeavesNoPartialState(t *testing.T) {
	pool := newIntegrationPool(t)
	store := NewCredentialStore(pool)
	ctx := context.Background()
	username := "dup-" + NewAdminCode()[:8]

	first := &domain.User{Username: username, PasswordHash: "h", Email: "a@example.com", FullName: "A"}
	ok, err := store.RegisterUser(ctx, first, false)
	require.NoError(t, err)
	require.True(t, ok)

	second := &domain.User{Username: username, PasswordHash: "h2", Email: "b@example.com", FullName: "B"}
	ok, err = store.RegisterUser(ctx, second, false)
	require.NoError(t, err)
	assert.False(t, ok)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username=$1`, username).Scan(&count))
	assert.Equal(t, 1, count)

	code, err := store.IssueAdminCode(ctx)
	require.NoError(t, err)
	admin := &domain.User{Username: username, PasswordHash: "h3", Email: "c@example.com", FullName: "C"}
	result, err := store.RegisterAdmin(ctx, code, admin)
	require.NoError(t, err)
	assert.Equal(t, AdminUsernameTaken, result)

	redeemed, err := store.RedeemAdminCode(ctx, code)
	require.NoError(t, err)
	assert.True(t, redeemed, "failed admin registration must not burn the code")
}

func TestIntegration_ResolveStampsAfterCreation(t *testing.T) {
	pool := newIntegrationPool(t)
	store := NewComplaintStore(pool)
	ctx := context.Background()

	complaint := &domain.Complaint{
		CustomerID: "C1", Text: "late", Category: domain.CategoryDelivery,
		Severity: 3, SentimentScore: -0.1, Status: domain.ComplaintStatusOpen,
	}
	require.NoError(t, store.Create(ctx, complaint))

	skewed := complaint.CreatedAt.Add(-time.Hour)
	require.NoError(t, store.UpdateStatus(ctx, StatusUpdate{ID: complaint.ID, Status: domain.ComplaintStatusResolved, ResolvedAt: &skewed}))

	got, err := store.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.False(t, got.ResolvedAt.Before(got.CreatedAt))

	require.NoError(t, store.UpdateStatus(ctx, StatusUpdate{ID: complaint.ID, Status: domain.ComplaintStatusOpen}))
	got, err = store.GetByID(ctx, complaint.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.ResolvedAt, "reopening keeps the previous resolution time by default")
}
