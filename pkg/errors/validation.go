package errors

import (
	"strings"
	"unicode"
)

// maxNameLength bounds item, group and track names read from scene files.
const maxNameLength = 256

// ValidateName validates a display name for an item, group or track.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters (names are drawn inside lane cells)
//   - No leading or trailing whitespace
//   - Maximum length of 256 characters
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}

	if strings.TrimSpace(name) != name {
		return New(ErrCodeInvalidName, "name %q has surrounding whitespace", name)
	}

	return nil
}
