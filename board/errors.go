package board

import (
	"fmt"

	"github.com/juju/errors"
)

const (
	// ErrStoreWrite marks a failed add, update or delete. The cache is
	// never patched locally, so there is nothing to roll back.
	ErrStoreWrite = errors.ConstError("store write failed")

	// ErrStoreConnect marks a subscription that could not be opened or
	// was dropped. It is logged; readers keep the last snapshot.
	ErrStoreConnect = errors.ConstError("store subscription failed")

	// ErrNotPermitted is returned when the session lacks the capability
	// for an action. The check is advisory; the store enforces nothing.
	ErrNotPermitted = errors.ConstError("not permitted")
)

// Reason classifies a ValidationError.
type Reason string

const (
	ReasonRequired  Reason = "required"
	ReasonDuplicate Reason = "duplicate"
	ReasonBlocked   Reason = "blocked"
	ReasonCategory  Reason = "category"
	ReasonParent    Reason = "parent"
)

// ValidationError rejects a write before it reaches the store.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a *ValidationError and returns it.
func IsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// writeError annotates a store failure and marks it as ErrStoreWrite while
// keeping the underlying cause (NotFound etc.) reachable with errors.Is.
func writeError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return errors.Annotatef(&storeWriteError{cause: err}, format, args...)
}

type storeWriteError struct {
	cause error
}

func (e *storeWriteError) Error() string {
	return fmt.Sprintf("%s: %v", ErrStoreWrite, e.cause)
}

func (e *storeWriteError) Is(target error) bool {
	return target == ErrStoreWrite
}

func (e *storeWriteError) Unwrap() error {
	return e.cause
}
