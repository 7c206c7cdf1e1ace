// Package repository holds the MySQL persistence for buildings, spots,
// users, vehicles, parking sessions and refresh tokens.  Lookups that
// map onto a ledger concept return the ledger's sentinel errors so that
// handlers only need one set of errors.Is checks.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrCardExists is returned when registering a card id that is already
// taken.  Handlers translate it into an HTTP 409 response.
var ErrCardExists = errors.New("card id already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenInvalid is returned for unknown, revoked or expired refresh
// tokens.
var ErrTokenInvalid = errors.New("refresh token invalid")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isDuplicate reports whether err is a unique key violation.  When key is
// non-empty the violated index name must contain it.
func isDuplicate(err error, key string) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return false
	}
	return key == "" || strings.Contains(me.Message, key)
}

// rollback is deferred by every transactional method; it is a no-op once
// the transaction has been committed.
func rollback(tx *sql.Tx, committed *bool) {
	if !*committed {
		_ = tx.Rollback()
	}
}
