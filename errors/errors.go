// Package errors provides error types and handling for sync operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents a sync operation error with context about the operation
// that failed. It wraps the underlying AWS SDK error with additional context
// for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "parseTarget", "reconcile", "transfer")
	Op string

	// Bucket is the S3 bucket name (if applicable)
	Bucket string

	// Key is the S3 object key (if applicable)
	Key string

	// Err is the underlying error from the AWS SDK or other source
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Bucket != "" && e.Key != "" {
		return fmt.Sprintf("smartsync.%s %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	}
	if e.Bucket != "" {
		return fmt.Sprintf("smartsync.%s bucket %s: %v", e.Op, e.Bucket, e.Err)
	}
	if e.Key != "" {
		return fmt.Sprintf("smartsync.%s key %s: %v", e.Op, e.Key, e.Err)
	}
	return fmt.Sprintf("smartsync.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithBucket adds bucket context to an existing error.
func (e *Error) WithBucket(bucket string) *Error {
	e.Bucket = bucket
	return e
}

// WithKey adds object key context to an existing error.
func (e *Error) WithKey(key string) *Error {
	e.Key = key
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// Phase identifies which per-key stage of a sync failed.
type Phase string

// Per-key phases, surfaced in errors so the caller can tell a failed lookup
// apart from a failed create, metadata update, or file transfer.
const (
	PhaseLookup   Phase = "lookup"
	PhaseCreate   Phase = "create"
	PhaseUpdate   Phase = "update"
	PhaseTransfer Phase = "transfer"
)

// ReconcileError reports the failure of a single key, during either
// directory reconciliation or file transfer. It carries the key and the
// phase so that partial failures across a key list remain attributable.
type ReconcileError struct {
	// Key is the remote key whose reconciliation failed
	Key string

	// Phase is the reconciliation stage that failed
	Phase Phase

	// Err is the underlying cause
	Err error
}

// Error implements the error interface.
func (e *ReconcileError) Error() string {
	return fmt.Sprintf("smartsync.%s key %s: %v", e.Phase, e.Key, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *ReconcileError) Unwrap() error {
	return e.Err
}

// NewReconcileError creates a ReconcileError for the given key and phase.
func NewReconcileError(key string, phase Phase, err error) *ReconcileError {
	return &ReconcileError{
		Key:   key,
		Phase: phase,
		Err:   err,
	}
}

// Sentinel errors for common sync operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidTarget indicates that the remote target string is malformed
	ErrInvalidTarget = errors.New("smartsync: invalid target")

	// ErrInvalidMetadata indicates that the base metadata configuration is malformed
	ErrInvalidMetadata = errors.New("smartsync: invalid metadata")

	// ErrTraversal indicates that the local path is missing or unreadable
	ErrTraversal = errors.New("smartsync: local path not traversable")

	// ErrInvalidBucketName indicates that the bucket name is invalid
	ErrInvalidBucketName = errors.New("smartsync: invalid bucket name")

	// ErrInvalidObjectKey indicates that the object key is invalid
	ErrInvalidObjectKey = errors.New("smartsync: invalid object key")
)

// IsInvalidTarget checks if an error indicates a malformed remote target.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidTarget(err error) bool {
	return errors.Is(err, ErrInvalidTarget)
}

// IsInvalidMetadata checks if an error indicates malformed base metadata.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsInvalidMetadata(err error) bool {
	return errors.Is(err, ErrInvalidMetadata)
}

// IsTraversal checks if an error indicates an unreadable local path.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsTraversal(err error) bool {
	return errors.Is(err, ErrTraversal)
}

// IsReconcile checks if an error is a per-key failure and returns it when so.
func IsReconcile(err error) (*ReconcileError, bool) {
	var re *ReconcileError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
