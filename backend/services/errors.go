package services

import (
	"errors"
	"fmt"

	"coursemarket/backend/repository"
)

// Error kinds. Handlers map them onto HTTP statuses with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Error carries a client-facing message together with its kind.
type Error struct {
	kind    error
	message string
}

func (e *Error) Error() string { return e.message }
func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) error {
	return newError(ErrNotFound, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return newError(ErrForbidden, format, args...)
}

func invalidState(format string, args ...interface{}) error {
	return newError(ErrInvalidState, format, args...)
}

func invalidInput(format string, args ...interface{}) error {
	return newError(ErrValidation, format, args...)
}

func unauthenticated(format string, args ...interface{}) error {
	return newError(ErrUnauthenticated, format, args...)
}

// lookup turns a missing row into a NotFound error naming the entity.
func lookup(err error, entity string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("%s not found", entity)
	}
	return err
}

func isMissing(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
