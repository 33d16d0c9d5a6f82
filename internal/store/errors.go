package store

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable wraps any failure to open or initialize the
	// database. It is fatal at startup.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound is returned when a key is missing. Never fatal.
	ErrNotFound = errors.New("record not found")

	// ErrExists is returned by Add when the key is already present.
	ErrExists = errors.New("record already exists")
)

// notFound maps sql.ErrNoRows to ErrNotFound, wrapping other errors.
func notFound(op string, key any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", op, key, ErrNotFound)
	}
	return fmt.Errorf("%s %v: %w", op, key, err)
}
