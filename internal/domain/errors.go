package domain

import (
	"errors"
	"fmt"
)

// Booking core rejections. All are recoverable and user facing; wrap them with
// Reject to add context and match them with errors.Is.
var (
	ErrInvalidDate         = errors.New("bus does not run on the requested travel date")
	ErrInvalidSegment      = errors.New("boarding stop must come before the destination stop")
	ErrSeatUnavailable     = errors.New("seat is already booked for an overlapping segment")
	ErrInsufficientFunds   = errors.New("insufficient coin balance")
	ErrNotCancellable      = errors.New("booking cannot be cancelled")
	ErrForbidden           = errors.New("not allowed for this user")
	ErrStopNotFound        = errors.New("stop not found")
	ErrConcurrencyConflict = errors.New("seat is busy, please retry")
	ErrUnauthenticated     = errors.New("invalid credentials")
)

// ErrRouteCorrupt marks stored route data that breaks the 1..N order invariant.
// It is a configuration fault, never a user error.
var ErrRouteCorrupt = errors.New("route stop order is corrupt")

// Reject wraps a sentinel with request-specific detail.
func Reject(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// Code returns the stable API code of a booking rejection, or "" when err is not one.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrInvalidSegment):
		return "invalid_segment"
	case errors.Is(err, ErrSeatUnavailable):
		return "seat_unavailable"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrNotCancellable):
		return "not_cancellable"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrStopNotFound):
		return "stop_not_found"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	}
	return ""
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}
