package app

import (
	"fmt"

	"github.com/shrimpsizemoose/dezhurka/internal/store"
	"github.com/shrimpsizemoose/dezhurka/internal/store/postgres"
	"github.com/shrimpsizemoose/dezhurka/internal/store/sqlite"
)

func NewStore(dsn, migrationsDir string) (store.DeductionStore, error) {
	switch dbType := store.DetectType(dsn); dbType {
	case store.DBTypePostgres:
		return postgres.NewPostgresStore(dsn, migrationsDir)
	case store.DBTypeSQLite:
		return sqlite.NewSQLiteStore(dsn, migrationsDir)
	default:
		return nil, fmt.Errorf("unable to determine database type from DSN: %s", dsn)
	}
}
