package tenancy

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated        = errors.New("Unauthenticated")
	ErrNotFoundOrAccessDenied = errors.New("not found or access denied")
	ErrInvalidArgument        = errors.New("invalid argument")
)

// NotFoundError is returned for both missing records and records owned by
// another tenant. The two cases are indistinguishable to the caller.
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found or access denied", e.Entity)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFoundOrAccessDenied
}

func NotFound(entity string) error {
	return &NotFoundError{Entity: entity}
}

// ArgumentError carries a caller-facing validation message.
type ArgumentError struct {
	Message string
}

func (e *ArgumentError) Error() string {
	return e.Message
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func InvalidArgument(format string, args ...interface{}) error {
	return &ArgumentError{Message: fmt.Sprintf(format, args...)}
}

func asInvalidArgument(err error) error {
	if errors.Is(err, ErrInvalidArgument) {
		return err
	}
	return &ArgumentError{Message: err.Error()}
}
