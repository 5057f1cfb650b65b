package app

import (
	"errors"
	"fmt"
)

var (
	// ErrNoText indicates the message text is a bare base64 marker
	// with no decodable payload.
	ErrNoText = errors.New("message has no text")
	// ErrThreadNotFound indicates the parent thread has no stored text.
	ErrThreadNotFound = errors.New("thread record not found")
	// ErrInvalidStatus indicates an unknown module status value.
	ErrInvalidStatus = errors.New("invalid module status")
)

// MissingFieldError identifies a required request field that was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}
