package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input that is missing required fields or carries invalid values.
	ErrValidation = errors.New("validation failed")
	// ErrActivityNotFound is returned when an activity cannot be located.
	ErrActivityNotFound = errors.New("activity not found")
	// ErrCategoryNotFound is returned when a category cannot be located.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrItemNotFound is returned when an inventory item cannot be located.
	ErrItemNotFound = errors.New("item not found")
	// ErrUserNotFound is returned when a user cannot be located.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by Login when email or password do not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries a caller-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrValidation) match every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
