package chatstore

import (
	"errors"
	"net/http"
)

// validationError reports a chat that cannot be stored as given.
type validationError struct{ msg string }

func (e validationError) Error() string   { return e.msg }
func (e validationError) StatusCode() int { return http.StatusBadRequest }
func (e validationError) Kind() string    { return "validation" }

// ErrValidation constructs a validation error.
func ErrValidation(msg string) error { return validationError{msg: msg} }

// IsValidation reports whether err rejects caller input.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// notFoundError signals a chat id with no stored record.
type notFoundError struct{ id string }

func (e notFoundError) Error() string   { return "chat not found: " + e.id }
func (e notFoundError) StatusCode() int { return http.StatusNotFound }
func (e notFoundError) Kind() string    { return "not_found" }

// ErrNotFound constructs a not-found error for id.
func ErrNotFound(id string) error { return notFoundError{id: id} }

// IsNotFound reports whether err indicates a missing chat.
func IsNotFound(err error) bool {
	var nf notFoundError
	return errors.As(err, &nf)
}

// storageError wraps a local I/O or database failure. It fails the request,
// never the process.
type storageError struct {
	op  string
	err error
}

func (e storageError) Error() string   { return "storage " + e.op + ": " + e.err.Error() }
func (e storageError) Unwrap() error   { return e.err }
func (e storageError) StatusCode() int { return http.StatusInternalServerError }
func (e storageError) Kind() string    { return "storage" }

// ErrStorage wraps err as a storage failure during op.
func ErrStorage(op string, err error) error { return storageError{op: op, err: err} }

// IsStorage reports whether err is a storage failure.
func IsStorage(err error) bool {
	var se storageError
	return errors.As(err, &se)
}
