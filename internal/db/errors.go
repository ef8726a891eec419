// Package db provides error types for store operations.
package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/surrealdb/surrealdb.go"
)

// Sentinel errors for store operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStorageUnavailable indicates the backend could not be reached or
	// returned a transport-level failure. The ingestion loop logs these and
	// continues with the next record rather than aborting the batch.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTransactionConflict indicates a SurrealDB transaction conflict from
	// concurrent writes to the same records. Callers may retry or skip.
	ErrTransactionConflict = errors.New("transaction conflict")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("event not found")
)

// wrapStoreError classifies a SurrealDB error. Query-level errors keep
// their database semantics (conflicts get a sentinel); anything else is
// a transport failure and wraps ErrStorageUnavailable so callers can
// fail fast without inspecting SDK types.
func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}

	var queryErr *surrealdb.QueryError
	if errors.As(err, &queryErr) {
		if strings.Contains(queryErr.Message, "Transaction conflict") {
			return fmt.Errorf("%w: %s", ErrTransactionConflict, queryErr.Message)
		}
		return err
	}

	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
