// Package repository defines the persistence layer for users and password
// reset tokens. Driver-specific failures are classified here into the
// sentinel values below so that higher layers never inspect MySQL or
// SQLite error types themselves.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email is
// already registered. Handlers should translate this into a 400/409.
var ErrEmailExists = errors.New("email already exists")

// ErrTokenExists is returned when a reset token value collides with an
// existing row.
var ErrTokenExists = errors.New("reset token already exists")

// ErrTokenNotUsable is returned by MarkUsedTx when the compare-and-set
// matched no unused, unexpired row.
var ErrTokenNotUsable = errors.New("reset token not usable")

// ErrForeignKey is returned when a token references an email with no user.
var ErrForeignKey = errors.New("foreign key violation")

// MySQL server error numbers.
const (
	mysqlDuplicateEntry = 1062
	mysqlNoReferenced   = 1452
)

// isUniqueViolation reports whether err is a unique constraint failure on
// either supported backend.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// isForeignKeyViolation reports whether err is a referential integrity
// failure on either supported backend.
func isForeignKeyViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlNoReferenced
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return false
}

// ErrInvalidCredentials is returned when the email is unknown or the
// password does not verify against the stored hash. The two cases are
// deliberately indistinguishable.
var ErrInvalidCredentials = errors.New("invalid credentials")
