package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode categorizes store failures.
type ErrorCode string

const (
	// ErrCodeDuplicateName indicates a uniqueness violation on create.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeNotFound indicates the referenced document does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"

	// ErrCodeStorageUnavailable indicates an engine failure (I/O, corruption,
	// closed handle, constraint other than uniqueness).
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
)

// Sentinels for errors.Is. A *Error matches the sentinel with the same code.
var (
	ErrDuplicateName      = &Error{Code: ErrCodeDuplicateName}
	ErrNotFound           = &Error{Code: ErrCodeNotFound}
	ErrStorageUnavailable = &Error{Code: ErrCodeStorageUnavailable}
)

// Error is the single error type surfaced by Store operations.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the store operation that failed (e.g. "create document").
	Op string

	// Name is the document name or section title involved, if any.
	Name string

	// Err is the underlying driver error, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	switch e.Code {
	case ErrCodeDuplicateName:
		msg = "duplicate name"
	case ErrCodeNotFound:
		msg = "not found"
	case ErrCodeStorageUnavailable:
		msg = "storage unavailable"
	}
	if e.Name != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Name)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying driver error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Code, so callers can compare against
// the package sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IsDuplicate returns true if err is a duplicate-name error.
// Uses errors.As to handle wrapped errors.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicateName)
}

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnavailable returns true if err is a storage failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStorageUnavailable)
}

// classify converts a driver error into a *Error.
// This is the only place that inspects engine-specific error codes: a
// uniqueness or primary-key constraint becomes DUPLICATE_NAME, everything
// else is STORAGE_UNAVAILABLE.
func classify(op, name string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	code := ErrCodeStorageUnavailable
	if isUniqueViolation(err) {
		code = ErrCodeDuplicateName
	}
	return &Error{Code: code, Op: op, Name: name, Err: err}
}

// isUniqueViolation reports whether err is a SQLite uniqueness violation.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code != sqlite3.ErrConstraint {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
