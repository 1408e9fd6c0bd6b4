package transfer

import (
	"errors"
	"fmt"
)

// Precondition failures. They are always returned wrapped in a
// *PreconditionError and abort the operation before any remote call.
var (
	ErrEmptySelection   = errors.New("no resources selected")
	ErrNoTargetInstance = errors.New("no target instance selected")
	ErrNoFiles          = errors.New("no files to import")
	ErrUnknownImport    = errors.New("unknown import id")
	ErrImportNotPending = errors.New("import is not pending confirmation")
	ErrAlreadySubmitted = errors.New("import was already submitted")
)

// PreconditionError reports an operation refused before it started.
type PreconditionError struct {
	Op     string
	Err    error
	Detail string
}

func (e *PreconditionError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Detail)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func precondition(op string, err error, detail string) error {
	return &PreconditionError{Op: op, Err: err, Detail: detail}
}

// IsPrecondition reports whether err is (or wraps) a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
