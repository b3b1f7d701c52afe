package auth

import (
	"errors"

	"github.com/desertthunder/libris/internal/services"
	"github.com/desertthunder/libris/internal/shared"
)

// Error is a failed bridge operation. Message is suitable for showing to the user.
type Error struct {
	Op      string
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Op + ": " + e.Message
	}
	if e.Err != nil {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": failed"
}

func (e *Error) Unwrap() error { return e.Err }

// Unconfirmed reports whether the account must be verified before signing in.
func (e *Error) Unconfirmed() bool { return e.Code == services.CodeUserNotConfirmed }

func wrap(op string, err error) *Error {
	e := &Error{Op: op, Err: err, Message: err.Error()}
	var idErr *services.IdentityError
	if errors.As(err, &idErr) {
		e.Code = idErr.Code
		e.Message = idErr.Error()
	}
	return e
}

func invalid(op, message string) *Error {
	return &Error{Op: op, Message: message, Err: shared.ErrInvalidInput}
}
