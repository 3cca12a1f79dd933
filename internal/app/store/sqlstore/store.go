// Package sqlstore implements store.Store on database/sql, supporting the pgx
// (PostgreSQL) and sqlite3 drivers. Queries are written with ? placeholders and
// rebound for postgres.
package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"
)

type SQLStore struct {
	db     *sql.DB
	driver string
}

// New wraps an already-opened (and migrated) database handle.
func New(sqlDB *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: sqlDB, driver: driver}
}

// rebind translates ? placeholders into $1, $2, ... for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver == "pgx" {
		n := strings.Count(query, "?")
		for i := 1; i <= n; i++ {
			query = strings.Replace(query, "?", fmt.Sprintf("$%d", i), 1)
		}
	}
	return query
}
