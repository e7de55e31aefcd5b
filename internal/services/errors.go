package services

import (
	"errors"
	"fmt"

	"github.com/emilythestrangee/tci-social/backend/internal/repositories"
	"github.com/emilythestrangee/tci-social/backend/internal/validator"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = fmt.Errorf("%w: incorrect email or password", ErrUnauthenticated)
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrDataIntegrity      = errors.New("data integrity violation")
)

// ValidationFailedError carries field-level details and matches ErrInvalidInput.
type ValidationFailedError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationFailedError) Error() string {
	return "invalid input: " + e.Errors.Error()
}

func (e *ValidationFailedError) Unwrap() error {
	return ErrInvalidInput
}

func invalidInput(field, message string) error {
	return &ValidationFailedError{Errors: validator.ValidationErrors{{
		Field:   field,
		Message: message,
		Rule:    "invalid",
	}}}
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}

// notFoundOr maps a repository miss to ErrNotFound and anything else to a storage error.
func notFoundOr(op, what string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return storageError(op, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repositories.ErrNotFound)
}
