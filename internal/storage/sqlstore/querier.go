package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mmynk/circles/internal/storage"
)

// querier runs queries against either the pool or an open transaction.
// Inside a PostgreSQL transaction, single-row and list reads take row
// locks. SQLite needs none: an IMMEDIATE transaction already holds the
// database write lock.
type querier struct {
	ext     sqlx.ExtContext
	dialect Dialect
	bind    int
	lock    bool
}

func newQuerier(ext sqlx.ExtContext, dialect Dialect, inTx bool) querier {
	bind := sqlx.QUESTION
	if dialect == DialectPostgres {
		bind = sqlx.DOLLAR
	}
	return querier{
		ext:     ext,
		dialect: dialect,
		bind:    bind,
		lock:    inTx && dialect == DialectPostgres,
	}
}

// forUpdate appends a row-lock clause when locking applies. of restricts
// the lock to one table of a join.
func (q querier) forUpdate(query, of string) string {
	if !q.lock {
		return query
	}
	if of != "" {
		return query + " FOR UPDATE OF " + of
	}
	return query + " FOR UPDATE"
}

func (q querier) get(ctx context.Context, dest any, query string, args ...any) error {
	err := sqlx.GetContext(ctx, q.ext, dest, sqlx.Rebind(q.bind, query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	return err
}

func (q querier) selectAll(ctx context.Context, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, q.ext, dest, sqlx.Rebind(q.bind, query), args...)
}

func (q querier) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := q.ext.ExecContext(ctx, sqlx.Rebind(q.bind, query), args...)
	if err != nil && isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %v", storage.ErrConflict, err)
	}
	return res, err
}

// execGuarded runs an UPDATE whose WHERE clause compares the previously
// read values. Zero affected rows means someone else got there first.
func (q querier) execGuarded(ctx context.Context, query string, args ...any) error {
	res, err := q.exec(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrConflict
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
