package store

import "strings"

type DatabaseType string

const (
	DBTypePostgres DatabaseType = "postgres"
	DBTypeSQLite   DatabaseType = "sqlite"
)

// DetectType tells the dialect from a DSN: postgres URLs, anything else is a SQLite file.
func DetectType(dsn string) DatabaseType {
	if strings.HasPrefix(dsn, "postgres") {
		return DBTypePostgres
	}
	return DBTypeSQLite
}

// DeductionFilter selects deductions by equality. Empty fields match everything.
type DeductionFilter struct {
	ClassName string
	Week      string
}
