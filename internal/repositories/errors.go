package repositories

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a specific record is not found (or a
	// guarded write matched no row).
	ErrNotFound = errors.New("requested record not found")

	// ErrDatabaseError is returned for unexpected database errors. It wraps
	// more specific driver errors.
	ErrDatabaseError = errors.New("database error")

	// ErrDuplicateKey is returned when an insert/update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key value violates unique constraint")
)

// SQLExecutor is satisfied by *sql.DB and *sql.Tx, so repository methods can
// run either inside a service-owned transaction or directly.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// TxManager runs a function inside a database transaction: commit on nil
// return, rollback otherwise. Services depend on this rather than *sql.DB so
// the transactional flow can be exercised against in-memory fakes.
type TxManager interface {
	WithinTx(fn func(executor SQLExecutor) error) error
}

type sqlTxManager struct {
	db *sql.DB
}

// NewTxManager wraps a *sql.DB as a TxManager.
func NewTxManager(db *sql.DB) TxManager {
	return &sqlTxManager{db: db}
}

func (m *sqlTxManager) WithinTx(fn func(executor SQLExecutor) error) error {
	tx, err := m.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", ErrDatabaseError, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing transaction: %v", ErrDatabaseError, err)
	}
	return nil
}
