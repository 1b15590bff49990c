package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
)

// DeductionStore is an append-only table of deductions. There is deliberately
// no update or delete.
type DeductionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateDeduction(d *models.Deduction) error
	ListDeductions(filter DeductionFilter) ([]models.Deduction, error)
	// SumDeductions adds up the scores of one class in one week, counting
	// each row as at most models.MaxScore so huge scores cannot overflow.
	SumDeductions(className, week string) (int, error)
}

// BaseStore provides common functionality for different DB implementations
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory in file name order,
// translating dialect if needed. Migrations must be idempotent.
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		names = append(names, file.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		logger.Debug.Printf("Applying migration: %s", name)
		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateDeduction inserts d and sets d.ID from the driver's last insert id.
// Drivers without LastInsertId support override this.
func (s *BaseStore) CreateDeduction(d *models.Deduction) error {
	res, err := s.DB.NamedExec(`
		INSERT INTO deductions (class_name, student_name, reason, score, week, "time")
		VALUES (:class_name, :student_name, :reason, :score, :week, :time)
	`, d)
	if err != nil {
		return fmt.Errorf("failed to create deduction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read deduction id: %w", err)
	}
	d.ID = id
	return nil
}

func (s *BaseStore) ListDeductions(filter DeductionFilter) ([]models.Deduction, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.ClassName != "" {
		conds = append(conds, "class_name = ?")
		args = append(args, filter.ClassName)
	}
	if filter.Week != "" {
		conds = append(conds, "week = ?")
		args = append(args, filter.Week)
	}

	query := `
		SELECT id, class_name, student_name, reason, score, week, "time"
		FROM deductions`
	if len(conds) > 0 {
		query += "\n\t\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\t\tORDER BY \"time\" ASC, id ASC"

	deductions := []models.Deduction{}
	if err := s.DB.Select(&deductions, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list deductions: %w", err)
	}
	return deductions, nil
}

func (s *BaseStore) SumDeductions(className, week string) (int, error) {
	var total int
	query := s.Converter(`
		SELECT COALESCE(SUM(CASE WHEN score > ? THEN ? ELSE score END), 0)
		FROM deductions
		WHERE class_name = ?
		AND week = ?
	`)
	if err := s.DB.Get(&total, query, models.MaxScore, models.MaxScore, className, week); err != nil {
		return 0, fmt.Errorf("failed to sum deductions for %s/%s: %w", className, week, err)
	}
	return total, nil
}
