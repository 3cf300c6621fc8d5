package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrEmptyContent is returned by Insert when the record has no original content.
var ErrEmptyContent = errors.New("original content is required")

// ErrInvalidLimit is returned by FindAll for a negative limit.
var ErrInvalidLimit = errors.New("limit must not be negative")

// StorageError reports a failed record store operation.
type StorageError struct {
	Op   string // ensure_schema, insert, find_by_id, find_all, count, ping
	Code string // SQLSTATE when the server reported one
	Err  error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("store: %s failed (SQLSTATE %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("store: %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func newStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	se = &StorageError{Op: op, Err: err}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		se.Code = pgErr.Code
	}
	return se
}
