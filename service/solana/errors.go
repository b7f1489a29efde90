package solana

import (
	"errors"
)

// ErrorKind classifies lookup failures.
type ErrorKind int

const (
	KindFetch ErrorKind = iota
	KindValidation
	KindNotFound
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "fetch"
	}
}

// Sentinels for errors.Is matching against a *Error of the same kind.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("transaction not found")
	ErrFetch      = errors.New("fetch error")
)

// Error is returned by Client.Fetch. Msg is safe to show to users.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindFetch {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrFetch:
		return e.Kind == KindFetch
	}
	return false
}

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: err}
}

func notFoundError() *Error {
	return &Error{Kind: KindNotFound, Msg: "transaction not found on the selected network"}
}

func fetchError(msg string, err error) *Error {
	return &Error{Kind: KindFetch, Msg: msg, Err: err}
}

// KindOf reports the kind of err. Errors that are not *Error count as fetch errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindFetch
}
