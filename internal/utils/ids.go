package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random identifier for messages, options, images and accounts.
func NewID() string {
	return uuid.NewString()
}

// NormalizeRef turns an empty reference into nil so optional foreign
// references are stored as NULL rather than "".
func NormalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	v := strings.TrimSpace(*ref)
	if v == "" {
		return nil
	}
	return &v
}
