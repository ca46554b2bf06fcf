// Package common defines the error taxonomy shared by the storage backends
// and their callers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound reports that a referenced user, movie or review is absent.
	ErrNotFound = errors.New("not found")

	// ErrConflict reports a duplicate user name or a missing association.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput reports a malformed name, weak password, malformed
	// year/rating, undersized review or an attempted movie rename.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageFailure wraps I/O and transaction failures. The cause is
	// kept in the chain.
	ErrStorageFailure = errors.New("storage failure")

	// ErrUnsupported reports an operation the active backend cannot perform.
	ErrUnsupported = errors.New("unsupported")
)

// StorageFailure wraps err so that both ErrStorageFailure and err match
// with errors.Is.
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// IsDomain reports whether err already carries one of the taxonomy kinds.
func IsDomain(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrStorageFailure) ||
		errors.Is(err, ErrUnsupported)
}

// Kind returns a short machine-readable name for the kind of err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrStorageFailure):
		return "storage_failure"
	case errors.Is(err, ErrUnsupported):
		return "unsupported"
	default:
		return "unknown"
	}
}

// HTTPStatus maps err to the status code the web layer responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnsupported):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
