package postgres

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/shrimpsizemoose/dezhurka/internal/models"
	"github.com/shrimpsizemoose/dezhurka/internal/store"
)

type PostgresStore struct {
	store.BaseStore
}

func NewPostgresStore(dsn, migrationsDir string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &PostgresStore{BaseStore: store.BaseStore{
		DB:        db,
		Converter: rebind,
	}}

	if err := s.ApplyMigrations(migrationsDir); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return s, nil
}

// rebind turns ? placeholders into $1, $2, ...
func rebind(query string) string {
	out := query
	for i := 1; strings.Contains(out, "?"); i++ {
		out = strings.Replace(out, "?", fmt.Sprintf("$%d", i), 1)
	}
	return out
}

func (s *PostgresStore) ApplyMigrations(dir string) error {
	return s.BaseStore.ApplyMigrations(dir, nil)
}

// lib/pq has no LastInsertId, so the id comes back through RETURNING.
func (s *PostgresStore) CreateDeduction(d *models.Deduction) error {
	rows, err := s.DB.NamedQuery(`
		INSERT INTO deductions (class_name, student_name, reason, score, week, "time")
		VALUES (:class_name, :student_name, :reason, :score, :week, :time)
		RETURNING id
	`, d)
	if err != nil {
		return fmt.Errorf("failed to create deduction: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&d.ID); err != nil {
			return fmt.Errorf("failed to read deduction id: %w", err)
		}
	}
	return rows.Err()
}
