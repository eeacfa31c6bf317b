package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/events"
)

// withTx executes a function within a database transaction.
// It automatically handles begin, rollback on error, and commit on success.
func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// translate classifies a driver error for op. Missing rows become NotFound,
// constraint violations Validation and everything else Access.
func translate(op, what string, err error) error {
	if err == nil {
		return nil
	}
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound(op, what)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return apperr.Validationf("%s already exists", what)
		case "23503":
			return apperr.Validationf("%s references a record that does not exist", what)
		}
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return apperr.Validationf("%s already exists", what)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return apperr.Validationf("%s references a record that does not exist", what)
		}
		if liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			return apperr.Validationf("%s violates a constraint", what)
		}
	}

	return apperr.Access(op, err)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.QueryerContext
	Rebind(query string) string
}

// gateway holds what every repository shares
type gateway struct {
	db             *sqlx.DB
	clock          func() time.Time
	newID          func() string
	publisher      events.Publisher
	publishRetries int
	logger         *slog.Logger
}

// now returns the commit timestamp for a write. Microsecond precision keeps
// values identical across the SQLite and Postgres round trip.
func (g *gateway) now() time.Time {
	return g.clock().UTC().Truncate(time.Microsecond)
}

// publish emits a change after commit. Delivery failures are logged, never
// returned: the write has already happened.
func (g *gateway) publish(ctx context.Context, table string, kind events.ChangeKind, ownerID string, newRow, oldRow events.Row, at time.Time) {
	if g.publisher == nil {
		return
	}

	change, err := events.NewChange(table, kind, ownerID, newRow, oldRow, at)
	if err != nil {
		g.logger.Error("failed to build change event", "table", table, "kind", kind, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := events.PublishWithRetry(ctx, g.publisher, change, g.publishRetries); err != nil {
		g.logger.Warn("change event not delivered", "table", table, "kind", kind, "owner", ownerID, "error", err)
	}
}

// utc normalises a scanned timestamp
func utc(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
