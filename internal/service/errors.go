package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidState        = errors.New("invalid state")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// failf wraps a sentinel with a user-facing message; errors.Is still matches kind.
func failf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error onto ErrNotFound and passes anything else through.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return failf(ErrNotFound, "%s not found", what)
	}
	return err
}

// Message strips the sentinel prefix added by failf.
func Message(err error) string {
	var kinds = []error{ErrNotFound, ErrForbidden, ErrValidation, ErrInvalidState, ErrInsufficientStock, ErrInsufficientBalance}
	msg := err.Error()
	for _, k := range kinds {
		prefix := k.Error() + ": "
		if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
			return msg[len(prefix):]
		}
	}
	return msg
}
