package biometry

import "errors"

type Kind string

const (
	KindValidation Kind = "validation_error"
	KindAuth       Kind = "auth_error"
	KindStorage    Kind = "storage_error"
	KindInternal   Kind = "internal_error"
	KindTimedOut   Kind = "timed_out"
)

// Error is a failed operation. Message is safe to show to callers, Cause is
// for logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func Storage(message string, cause error) *Error {
	return &Error{Kind: KindStorage, Message: message, Cause: cause}
}

func Internal(message string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: message, Cause: cause}
}

func TimedOut(message string, cause error) *Error {
	return &Error{Kind: KindTimedOut, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, and
// KindInternal for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
