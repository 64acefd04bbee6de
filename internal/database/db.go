package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/iliyamo/user-auth-service/internal/config"
)

// Open connects to the configured backend and verifies the connection.
func Open(cfg config.Config) (*sql.DB, error) {
	switch cfg.DBDriver {
	case DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	case DriverMySQL:
		return OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	return nil, fmt.Errorf("database: unsupported driver %q", cfg.DBDriver)
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(user, pass, host, port, name string) (*sql.DB, error) {
	auth := user
	if pass != "" {
		auth = fmt.Sprintf("%s:%s", user, pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, host, port, name)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := pingWithTimeout(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file. Foreign keys
// are a per-connection pragma, so they are set in the DSN. SQLite has a
// single writer; the pool is capped at one connection so writers queue in
// database/sql instead of failing with SQLITE_BUSY.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := pingWithTimeout(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Ping reports whether the database answers within a short timeout.
func Ping(ctx context.Context, db *sql.DB) bool {
	if db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return db.PingContext(ctx) == nil
}

// Ping with timeout
func pingWithTimeout(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}
