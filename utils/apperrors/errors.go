// Package apperrors defines the error taxonomy shared by the service layer
// and the HTTP handlers. Services only ever return these types (or errors
// wrapping them); handlers own the mapping to HTTP responses.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError indicates malformed or semantically invalid input. Always
// recoverable by the caller correcting the input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

// NotFoundError indicates a referenced entity does not exist or is
// soft-deleted.
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
	}
	return e.Resource + " not found"
}

// ConflictError indicates a uniqueness or referential invariant would be
// violated. Constraint names which one, so callers can build a precise
// user-facing message.
type ConflictError struct {
	Constraint string
	Message    string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict (%s): %s", e.Constraint, e.Message)
}

// CycleError is the conflict subtype raised when a prerequisite insertion
// would create a directed cycle through the edge set.
type CycleError struct {
	SubjectID      uint
	PrerequisiteID uint
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("adding prerequisite %d to subject %d would create a cycle", e.PrerequisiteID, e.SubjectID)
}

// StorageError wraps an underlying store failure. The transaction has already
// been rolled back by the time one of these is returned.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage is a convenience constructor for StorageError.
func Storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is (or wraps) a ConflictError or CycleError.
func IsConflict(err error) bool {
	var conflict *ConflictError
	var cycle *CycleError
	return errors.As(err, &conflict) || errors.As(err, &cycle)
}

// IsCycle reports whether err is (or wraps) a CycleError.
func IsCycle(err error) bool {
	var target *CycleError
	return errors.As(err, &target)
}
