package util

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a compact random request id derived from a UUID.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
