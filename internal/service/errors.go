package service

import (
	"errors"
	"fmt"

	"github.com/Harsh-Singh007/grabit/internal/entity"
	"github.com/Harsh-Singh007/grabit/internal/repository"
)

// Error kinds. Every *Error unwraps to exactly one of them.
var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrConflict       = errors.New("conflict")
	ErrAuthentication = errors.New("authentication failed")
)

// Error is a failure the caller can act on. Message is safe to show to the user.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidOrder    = &Error{Kind: ErrInvalidInput, Message: "Invalid order details"}
	ErrAlreadyReviewed = &Error{Kind: ErrConflict, Message: "Product already reviewed", Err: entity.ErrAlreadyReviewed}
	ErrNotVerified     = &Error{Kind: ErrAuthentication, Message: "Account not verified. Please verify your email."}
	ErrCancelledByUser = &Error{Kind: ErrConflict, Message: "Cannot change status of an order cancelled by the user", Err: entity.ErrCancelledByUser}
	ErrNotCancellable  = &Error{Kind: ErrConflict, Message: "Order can no longer be cancelled", Err: entity.ErrNotCancellable}
	ErrStaleOrder      = &Error{Kind: ErrConflict, Message: "Order was changed by someone else, please retry", Err: repository.ErrStale}
	ErrPaidAfterCancel = &Error{Kind: ErrConflict, Message: "Order was cancelled before payment was confirmed"}
)

var errInvalidCredentials = &Error{Kind: ErrAuthentication, Message: "Invalid credentials"}

// notFound maps repository.ErrNotFound to a NotFound error with msg and
// passes anything else through.
func notFound(err error, msg string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: ErrNotFound, Message: msg, Err: err}
	}
	return err
}
