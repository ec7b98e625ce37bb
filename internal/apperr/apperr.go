// Package apperr carries the error taxonomy shared by the checkout
// services. Handlers map kinds to HTTP statuses; services never deal in
// status codes or driver-specific error strings.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	// KindNotFound: address/order/payment/product absent.
	KindNotFound
	// KindForbidden: resource exists but is not owned by the caller.
	KindForbidden
	// KindValidation: malformed input, unknown enum value.
	KindValidation
	// KindConflict: business rule violation (insufficient stock, empty
	// cart, payment already completed/refunded).
	KindConflict
	// KindUpstream: the payment gateway call failed; retryable, no local
	// state was mutated.
	KindUpstream
	// KindSignatureMismatch: cryptographic verification failed.
	KindSignatureMismatch
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindUnknown for plain errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
