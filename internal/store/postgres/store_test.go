package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
)

// setupTestDB starts a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	container, err := tcpostgres.Run(
		ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		container.Terminate(ctx)
	}

	return s, cleanup
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() || os.Getenv("DEZHURKA_PG_TESTS") == "" {
		log.Println("Skipping Postgres integration tests. Set DEZHURKA_PG_TESTS=1 to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "WHERE a = $1 AND b = $2", rebind("WHERE a = ? AND b = ?"))
}

func TestDeductionOperations(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	deductions := []models.Deduction{
		{ClassName: "7A", StudentName: "Li", Reason: "late", Score: 5, Week: "2024-W3", Time: "2024-01-15 08:01"},
		{ClassName: "7A", StudentName: "Wu", Reason: "litter", Score: 10, Week: "2024-W3", Time: "2024-01-15 08:01"},
		{ClassName: "7B", StudentName: "Chen", Reason: "noise", Score: 3, Week: "2024-W2", Time: "2024-01-10 08:02"},
		{ClassName: "9C", StudentName: "Zhao", Reason: "vandalism", Score: 3000000000, Week: "2024-W3", Time: "2024-01-15 09:00"},
	}

	t.Run("create", func(t *testing.T) {
		for i := range deductions {
			require.NoError(t, s.CreateDeduction(&deductions[i]))
			assert.NotZero(t, deductions[i].ID)
		}
		assert.Greater(t, deductions[1].ID, deductions[0].ID)
	})

	t.Run("schema rejects non-positive score", func(t *testing.T) {
		bad := models.Deduction{ClassName: "7A", StudentName: "Li", Reason: "late", Score: -5, Week: "2024-W3", Time: "2024-01-15 08:01"}
		assert.Error(t, s.CreateDeduction(&bad))
	})

	t.Run("list by class and week", func(t *testing.T) {
		got, err := s.ListDeductions(store.DeductionFilter{ClassName: "7A", Week: "2024-W3"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, deductions[0], got[0])
		assert.Equal(t, deductions[1], got[1])
	})

	t.Run("sum", func(t *testing.T) {
		total, err := s.SumDeductions("7A", "2024-W3")
		require.NoError(t, err)
		assert.Equal(t, 15, total)

		total, err = s.SumDeductions("7B", "2024-W3")
		require.NoError(t, err)
		assert.Equal(t, 0, total)

		total, err = s.SumDeductions("9C", "2024-W3")
		require.NoError(t, err)
		assert.Equal(t, models.MaxScore, total)
	})
}
