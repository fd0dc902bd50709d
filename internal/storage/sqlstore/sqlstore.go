// Package sqlstore implements storage.Store on top of database/sql through
// sqlx. The same queries serve SQLite (modernc.org/sqlite, pure Go) and
// PostgreSQL (lib/pq); placeholders are rebound per driver.
package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/circles/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Dialect names the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Store implements storage.Store using SQL.
type Store struct {
	querier
	db     *sqlx.DB
	tracer trace.Tracer
}

// OpenSQLite opens (creating if needed) the SQLite database at dbPath and
// runs migrations.
//
// The pool is limited to one connection and transactions begin IMMEDIATE,
// so SQLite serializes writers instead of failing them with SQLITE_BUSY.
func OpenSQLite(ctx context.Context, dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Set("_txlock", "immediate")
	dsn := "file:" + dbPath + "?" + q.Encode()

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	return newStore(ctx, db, DialectSQLite)
}

// OpenPostgres connects to the PostgreSQL database at dsn and runs
// migrations.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	return newStore(ctx, db, DialectPostgres)
}

func newStore(ctx context.Context, db *sqlx.DB, dialect Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{
		querier: newQuerier(db, dialect, false),
		db:      db,
		tracer:  otel.Tracer("circles/sqlstore"),
	}, nil
}

// Dialect reports the backend the store talks to.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// WithTx runs fn inside a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx storage.Tx) error) (err error) {
	ctx, span := s.tracer.Start(ctx, "sqlstore.tx",
		trace.WithAttributes(attribute.String("db.system", string(s.dialect))),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(newQuerier(tx, s.dialect, true)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	span.SetAttributes(attribute.Bool("tx.committed", true))
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
