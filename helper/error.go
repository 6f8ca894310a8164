package helper

import "fmt"

// Error wraps an underlying error with the operation that failed
type Error struct {
	Context string
	Err     error
}

// NewError creates a wrapped error with context about the failed operation
func NewError(context string, err error) *Error {
	return &Error{
		Context: context,
		Err:     err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("error in %s: %v", e.Context, e.Err)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}
