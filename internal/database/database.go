package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"event_staffing_backend/internal/config"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver for local runs and tests
)

//go:embed schema/*.sql
var schemaFS embed.FS

// InitDB opens the configured database, verifies the connection and applies
// the embedded schema.
func InitDB(cfg *config.Config) (*sql.DB, error) {
	db, err := Open(cfg.DBDriver, cfg.DSN())
	if err != nil {
		return nil, err
	}
	if err := ApplySchema(db, cfg.DBDriver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open connects to driver/dsn and pings it. SQLite connections are limited to
// a single writer with foreign keys and a busy timeout enabled.
func Open(driver, dsn string) (*sql.DB, error) {
	if driver == config.DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if driver == config.DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	return db, nil
}

// ApplySchema executes the schema for driver. Every statement is idempotent.
func ApplySchema(db *sql.DB, driver string) error {
	name := "schema/postgres.sql"
	if driver == config.DriverSQLite {
		name = "schema/sqlite.sql"
	}
	content, err := schemaFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("could not read schema file %s: %w", name, err)
	}
	if _, err := db.Exec(string(content)); err != nil {
		return fmt.Errorf("could not execute schema script: %w", err)
	}
	return nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}
