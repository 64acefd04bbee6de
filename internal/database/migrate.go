package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// Supported driver names, matching config.Config.DBDriver.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

//go:embed migrations/mysql/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// Migrate applies every pending embedded migration for the given driver.
func Migrate(db *sql.DB, driver string) error {
	dialect, dir, err := migrationSet(driver)
	if err != nil {
		return err
	}
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("database: set dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Version returns the current schema version for the given driver.
func Version(db *sql.DB, driver string) (int64, error) {
	dialect, _, err := migrationSet(driver)
	if err != nil {
		return 0, err
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(db)
}

func migrationSet(driver string) (dialect, dir string, err error) {
	switch driver {
	case DriverMySQL:
		return "mysql", "migrations/mysql", nil
	case DriverSQLite:
		return "sqlite3", "migrations/sqlite", nil
	}
	return "", "", fmt.Errorf("database: no migrations for driver %q", driver)
}
