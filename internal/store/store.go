// Package store contains all remote database access for the sync engine.
// Each table group has its own file with typed query and mutation methods.
// No business logic lives here — only SQL and type mapping.
//
// Authorization is enforced entirely server-side by row-level policy; these
// methods never filter by "is this mine" and must tolerate receiving fewer
// rows than requested.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wellsfam/tripsync/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and
// pgx.Tx. Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store exposes every remote read and write the engine needs, grouped into
// per-table files. It is safe for concurrent use; all state lives in the
// underlying connection pool.
type Store struct {
	db db
}

// New constructs a Store backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback
// isolation.
func New(db db) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// classify maps a pgx error to the domain taxonomy and wraps it with the
// operation name. Every public method routes its errors through here so
// callers only ever see ErrNotFound, ErrRejected, or ErrUnavailable.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Integrity (23xxx), insufficient privilege (42501), and auth
		// failures (28xxx) are the backend refusing the statement.
		// Everything else is treated as the service being unreachable.
		if strings.HasPrefix(pgErr.Code, "23") ||
			strings.HasPrefix(pgErr.Code, "28") ||
			pgErr.Code == "42501" {
			return fmt.Errorf("%s: %s: %w", op, pgErr.Message, domain.ErrRejected)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
