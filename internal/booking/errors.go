package booking

import (
	"errors"
	"fmt"

	"trekbook/internal/inventory"
	"trekbook/internal/refund"
)

var (
	ErrAlreadyCompleted   = errors.New("a completed booking already exists for this trek batch")
	ErrDuplicatePending   = errors.New("an active booking already exists for this trek batch")
	ErrInvalidReason      = errors.New("cancellation reason is required")
	ErrTermsNotAccepted   = errors.New("cancellation terms must be accepted")
	ErrAlreadyCancelled   = errors.New("booking is already cancelled")
	ErrNotFound           = errors.New("booking not found")
	ErrReferenceCollision = errors.New("could not allocate a unique booking reference")
	ErrInvalidRequest     = errors.New("invalid booking request")
	ErrTransactionFailure = errors.New("booking transaction failed")

	// ErrDuplicateReference is raised by the record store when the generated
	// reference is already taken. The engine retries it; callers only ever
	// see ErrReferenceCollision.
	ErrDuplicateReference = errors.New("booking reference already exists")

	ErrInsufficientCapacity     = inventory.ErrInsufficientCapacity
	ErrCancellationWindowClosed = refund.ErrCancellationWindowClosed
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// TransactionError wraps a store fault that is not a business outcome, such as
// a lost connection, lock timeout or unexpected constraint violation.
type TransactionError struct {
	Op  string
	Err error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailure
}

var domainErrors = []error{
	ErrAlreadyCompleted,
	ErrDuplicatePending,
	ErrInsufficientCapacity,
	ErrInvalidReason,
	ErrTermsNotAccepted,
	ErrAlreadyCancelled,
	ErrCancellationWindowClosed,
	ErrNotFound,
	ErrReferenceCollision,
	ErrInvalidRequest,
	ErrDuplicateReference,
}

// IsDomainError reports whether err is an expected business outcome rather
// than a store fault.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether the same request may succeed if sent again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrReferenceCollision)
}

// classify leaves business outcomes untouched and wraps everything else as a
// TransactionError.
func classify(op string, err error) error {
	if err == nil || IsDomainError(err) {
		return err
	}
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return err
	}
	return &TransactionError{Op: op, Err: err}
}

// reasonCode is the metrics label for err.
func reasonCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyCompleted):
		return "already_completed"
	case errors.Is(err, ErrDuplicatePending):
		return "duplicate_pending"
	case errors.Is(err, ErrInsufficientCapacity):
		return "insufficient_capacity"
	case errors.Is(err, ErrInvalidReason):
		return "invalid_reason"
	case errors.Is(err, ErrTermsNotAccepted):
		return "terms_not_accepted"
	case errors.Is(err, ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, ErrCancellationWindowClosed):
		return "window_closed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrReferenceCollision):
		return "reference_collision"
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return "transaction_failure"
	}
}
