// Package postgres implements store.Store against a real PostgreSQL
// database via sqlx/lib/pq, grounded on the teacher repository's
// query-and-scan style (internal/rota/repository before adaptation):
// plain SQL with $N placeholders, RETURNING for server-generated
// timestamps, and database.MapPQError to translate constraint
// violations into pkg/errors.AppError.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rotakit/rotakit/internal/rota/store"
	"github.com/rotakit/rotakit/pkg/database"
)

// execer is the subset of *sqlx.DB and *sqlx.Tx every sub-store needs.
// WithinTransaction binds the same Store type to a *sqlx.Tx so business
// logic never has to know whether it is running inside a transaction.
type execer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store is the postgres-backed store.Store implementation.
type Store struct {
	db execer
	tx *sqlx.Tx // nil outside a transaction
}

// New returns a Store backed by db for production use.
func New(db *database.DB) *Store {
	return &Store{db: db.DB}
}

// NewFromSqlx returns a Store backed directly by a *sqlx.DB, for tests
// that build their own connection (testcontainers, sqlmock).
func NewFromSqlx(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Employees() store.EmployeeStore         { return (*employeeStore)(s) }
func (s *Store) Teams() store.TeamStore                 { return (*teamStore)(s) }
func (s *Store) Templates() store.ShiftTemplateStore    { return (*templateStore)(s) }
func (s *Store) Shifts() store.ShiftStore               { return (*shiftStore)(s) }
func (s *Store) Patterns() store.RecurringPatternStore  { return (*patternStore)(s) }
func (s *Store) Leave() store.LeaveStore                { return (*leaveStore)(s) }
func (s *Store) Swaps() store.SwapStore                 { return (*swapStore)(s) }
func (s *Store) Notifications() store.NotificationStore { return (*notificationStore)(s) }

// WithinTransaction begins a real SQL transaction and runs fn with a Store
// bound to it. A fn error (or a panic, re-raised after rollback) rolls the
// transaction back; a nil return commits.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	root, ok := s.db.(*sqlx.DB)
	if !ok {
		// Already inside a transaction: nesting reuses it (postgres has no
		// true nested transactions; savepoints aren't needed at our call
		// depths).
		return fn(ctx, s)
	}

	tx, err := root.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	txStore := &Store{db: tx, tx: tx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
