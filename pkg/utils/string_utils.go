package utils

import "strings"

// NewNullString is a helper for string pointers, returning nil for empty input.
// Useful for optional fields that should be NULL in the DB when not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IsBlank reports whether a string is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
