// Package db opens the application database and applies embedded migrations.
//
// Production deployments run PostgreSQL through the pgx stdlib driver; tests and
// single-node setups use sqlite. Both go through database/sql so the store layer
// is driver-agnostic.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Open connects using the given driver ("pgx" or "sqlite3"), verifies the
// connection, and applies all pending migrations.
func Open(driver, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if driver == "pgx" {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	} else {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		// while still allowing concurrent use through database/sql queuing.
		sqlDB.SetMaxOpenConns(1)
	}

	if err := runMigrations(sqlDB, driver); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return sqlDB, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(sqlDB *sql.DB, driver string) error {
	goose.SetBaseFS(embedMigrations)

	dialect := "postgres"
	if driver == "sqlite3" {
		dialect = "sqlite3"
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(sqlDB, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}
