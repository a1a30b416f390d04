// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when the query has no searchable text.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrMissingCredentials is returned when the API key or engine id is unset.
	ErrMissingCredentials = errors.New("search api key and engine id are required")

	// ErrMalformedPage marks a page whose payload did not match the expected shape.
	ErrMalformedPage = errors.New("malformed search api page")
)

// APIError reports a search API page that could not be fetched or decoded.
// It aborts the whole fetch.
type APIError struct {
	Query string
	Start int

	// Status is the HTTP status code, or zero if no response was received.
	Status int

	Err error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("search api page start=%d (HTTP %d): %v", e.Start, e.Status, e.Err)
	}
	return fmt.Sprintf("search api page start=%d: %v", e.Start, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}
