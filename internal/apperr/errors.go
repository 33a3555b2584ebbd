// Package apperr holds the error classes shared by the room engine, the
// withdrawal ledger and the transports that render them.
package apperr

import "errors"

var (
	ErrValidation     = errors.New("validation_error")
	ErrAuthorization  = errors.New("authorization_error")
	ErrState          = errors.New("state_error")
	ErrCryptoMismatch = errors.New("crypto_mismatch_error")
	ErrLedger         = errors.New("ledger_error")
)

// Error is a coded failure that belongs to exactly one class.
type Error struct {
	Class error
	Code  string
}

func New(class error, code string) *Error {
	return &Error{Class: class, Code: code}
}

func (e *Error) Error() string {
	return e.Code
}

func (e *Error) Unwrap() error {
	return e.Class
}

// Code returns the most specific code carried by err, falling back to the
// class name and finally to "internal_error".
func Code(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	for _, class := range []error{ErrValidation, ErrAuthorization, ErrState, ErrCryptoMismatch, ErrLedger} {
		if errors.Is(err, class) {
			return class.Error()
		}
	}
	return "internal_error"
}
