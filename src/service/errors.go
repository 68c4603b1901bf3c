package service

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("transaction not found")
	ErrForbidden = errors.New("transaction belongs to another user")
	ErrConflict  = errors.New("transaction version mismatch")
)

// ValidationError carries one message per rejected field.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func (e *ValidationError) add(msg string) {
	e.Messages = append(e.Messages, msg)
}

func (e *ValidationError) orNil() error {
	if e == nil || len(e.Messages) == 0 {
		return nil
	}
	return e
}
