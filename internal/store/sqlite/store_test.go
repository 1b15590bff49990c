// internal/store/sqlite/store_test.go
package sqlite

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
)

// setupTestDB creates an in-memory SQLite database with the real migrations applied
func setupTestDB(t *testing.T) (*SQLiteStore, func()) {
	s, err := NewSQLiteStore(":memory:", "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		err := s.Close()
		require.NoError(t, err, "Failed to close database")
	}

	return s, cleanup
}

func seed(t *testing.T, s *SQLiteStore, deductions []models.Deduction) []models.Deduction {
	out := make([]models.Deduction, 0, len(deductions))
	for _, d := range deductions {
		d := d
		require.NoError(t, s.CreateDeduction(&d), "Failed to create test deduction")
		out = append(out, d)
	}
	return out
}

var fixtures = []models.Deduction{
	{ClassName: "7A", StudentName: "Li", Reason: "late", Score: 5, Week: "2024-W3", Time: "2024-01-15 08:01"},
	{ClassName: "7B", StudentName: "Chen", Reason: "noise", Score: 3, Week: "2024-W3", Time: "2024-01-15 08:02"},
	{ClassName: "7A", StudentName: "Wu", Reason: "litter", Score: 10, Week: "2024-W3", Time: "2024-01-16 10:30"},
	{ClassName: "7A", StudentName: "Li", Reason: "late", Score: 40, Week: "2024-W2", Time: "2024-01-10 08:00"},
}

func TestMain(m *testing.M) {
	log.Println("Starting SQLite store tests...")
	code := m.Run()
	log.Println("Finished SQLite store tests")
	os.Exit(code)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, s.ApplyMigrations("../../../migrations"))
}

func TestCreateDeduction(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	created := seed(t, s, fixtures)

	t.Run("ids are assigned and increasing", func(t *testing.T) {
		for i := 1; i < len(created); i++ {
			assert.Greater(t, created[i].ID, created[i-1].ID)
		}
		assert.Equal(t, int64(1), created[0].ID)
	})

	t.Run("non-positive score rejected by schema", func(t *testing.T) {
		bad := models.Deduction{ClassName: "7A", StudentName: "Li", Reason: "late", Score: 0, Week: "2024-W3", Time: "2024-01-15 08:01"}
		assert.Error(t, s.CreateDeduction(&bad))
	})
}

func TestListDeductions(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	created := seed(t, s, fixtures)

	t.Run("by week", func(t *testing.T) {
		got, err := s.ListDeductions(store.DeductionFilter{Week: "2024-W3"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, created[0], got[0])
		assert.Equal(t, "Chen", got[1].StudentName)
		assert.Equal(t, "Wu", got[2].StudentName)
	})

	t.Run("by class and week", func(t *testing.T) {
		got, err := s.ListDeductions(store.DeductionFilter{ClassName: "7A", Week: "2024-W3"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Li", got[0].StudentName)
		assert.Equal(t, "Wu", got[1].StudentName)
	})

	t.Run("by class across weeks ordered by time", func(t *testing.T) {
		got, err := s.ListDeductions(store.DeductionFilter{ClassName: "7A"})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "2024-W2", got[0].Week)
	})

	t.Run("same minute keeps insertion order", func(t *testing.T) {
		seed(t, s, []models.Deduction{
			{ClassName: "8D", StudentName: "Sun", Reason: "phone", Score: 1, Week: "2024-W4", Time: "2024-01-22 09:00"},
			{ClassName: "8D", StudentName: "Ma", Reason: "phone", Score: 1, Week: "2024-W4", Time: "2024-01-22 09:00"},
		})
		got, err := s.ListDeductions(store.DeductionFilter{ClassName: "8D"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "Sun", got[0].StudentName)
		assert.Equal(t, "Ma", got[1].StudentName)
	})

	t.Run("no matches is an empty list", func(t *testing.T) {
		got, err := s.ListDeductions(store.DeductionFilter{ClassName: "nope"})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestSumDeductions(t *testing.T) {
	s, cleanup := setupTestDB(t)
	defer cleanup()

	seed(t, s, fixtures)

	t.Run("existing class", func(t *testing.T) {
		total, err := s.SumDeductions("7A", "2024-W3")
		require.NoError(t, err)
		assert.Equal(t, 15, total)
	})

	t.Run("other week is separate", func(t *testing.T) {
		total, err := s.SumDeductions("7A", "2024-W2")
		require.NoError(t, err)
		assert.Equal(t, 40, total)
	})

	t.Run("unknown class sums to zero", func(t *testing.T) {
		total, err := s.SumDeductions("12Z", "2024-W3")
		require.NoError(t, err)
		assert.Equal(t, 0, total)
	})

	t.Run("huge scores do not overflow", func(t *testing.T) {
		seed(t, s, []models.Deduction{
			{ClassName: "9C", StudentName: "Li", Reason: "vandalism", Score: 1<<63 - 1, Week: "2024-W3", Time: "2024-01-15 09:00"},
			{ClassName: "9C", StudentName: "Wu", Reason: "vandalism", Score: 1<<63 - 1, Week: "2024-W3", Time: "2024-01-15 09:01"},
		})
		total, err := s.SumDeductions("9C", "2024-W3")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, total, models.MaxScore)
	})
}

func TestTranslateToSQLite(t *testing.T) {
	got := translateToSQLite("id BIGSERIAL PRIMARY KEY, n BIGINT, at TIMESTAMPTZ DEFAULT now()")
	assert.Equal(t, "id INTEGER PRIMARY KEY AUTOINCREMENT, n INTEGER, at TEXT DEFAULT CURRENT_TIMESTAMP", got)
}
