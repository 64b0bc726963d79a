package apperr

import "errors"

type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidation(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func NewValidationWrap(msg string, err error) *ValidationError {
	return &ValidationError{Message: msg, Err: err}
}

// NotFoundError reports an operation against a missing entity. It is
// returned to callers as a typed result, never treated as a crash.
type NotFoundError struct {
	Entity string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return e.Entity + " not found: " + e.Err.Error()
	}
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

func NewNotFound(entity string) *NotFoundError {
	return &NotFoundError{Entity: entity}
}

// ConflictError marks an idempotent no-op: a duplicate ingestion, chunk
// write or interaction that already took effect. Treated as success by
// pipeline code and as 409 only where the caller must know.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflict(msg string) *ConflictError {
	return &ConflictError{Message: msg}
}

// IntegrityError is a data invariant violation such as an embedding
// dimension mismatch. Never retried.
type IntegrityError struct {
	Message string
	Err     error
}

func (e *IntegrityError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

func NewIntegrity(msg string) *IntegrityError {
	return &IntegrityError{Message: msg}
}

func NewIntegrityWrap(msg string, err error) *IntegrityError {
	return &IntegrityError{Message: msg, Err: err}
}

// TransientError wraps an external-dependency failure (timeout, rate
// limit) that is eligible for retry with backoff.
type TransientError struct {
	Message string
	Err     error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

func NewTransientWrap(msg string, err error) *TransientError {
	return &TransientError{Message: msg, Err: err}
}

// IsRetryable reports whether err may be retried: transient failures
// are, validation/integrity/not-found/conflict are not.
func IsRetryable(err error) bool {
	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	var ve *ValidationError
	var ie *IntegrityError
	var nf *NotFoundError
	var ce *ConflictError
	if errors.As(err, &ve) || errors.As(err, &ie) || errors.As(err, &nf) || errors.As(err, &ce) {
		return false
	}
	// Unknown errors default to retryable; the attempt bound caps them.
	return true
}

// IsConflict reports whether err is an idempotent no-op.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is a typed not-found result.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
