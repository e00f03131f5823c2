package vector

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrDimensionMismatch = errors.New("vector: dimension mismatch")
	ErrStorage           = errors.New("vector: storage failure")
	ErrCorrupt           = errors.New("vector: index file corrupted")
)

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("vector.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrap adds operation context to an error.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
