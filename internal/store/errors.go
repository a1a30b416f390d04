// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyContent is returned when a record without page content is inserted.
	ErrEmptyContent = errors.New("record has empty content")

	// ErrUnsupportedDriver is returned for a store driver other than sqlite3 or postgres.
	ErrUnsupportedDriver = errors.New("unsupported store driver")
)

// Error reports a persistence fault. Callers treat it as fatal for the
// current request; nothing retries it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
