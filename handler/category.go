package handler

import (
	"fmt"
	"strings"
)

// Category partitions handlers into groups used by the registration policy.
// At most one handler per category can be registered with a dispatcher,
// except for CustomCategory which permits any number of handlers.
type Category uint8

const (
	// ConsoleCategory handlers print to the process console (stdout/stderr).
	ConsoleCategory Category = iota

	// SystemCategory handlers print to a native or backend logger.
	SystemCategory

	// FileCategory handlers print to a file.
	FileCategory

	// CustomCategory handlers print to a custom destination.
	// It is the only category that allows more than one registered handler.
	CustomCategory
)

// String returns the lowercase name of the category.
func (c Category) String() string {
	switch c {
	case ConsoleCategory:
		return "console"
	case SystemCategory:
		return "system"
	case FileCategory:
		return "file"
	case CustomCategory:
		return "custom"
	default:
		return fmt.Sprintf("unknown (%d)", c)
	}
}

// Exclusive reports whether registering a handler of this category
// replaces a previously registered handler of the same category.
func (c Category) Exclusive() bool {
	return c != CustomCategory
}

// ParseCategory converts a case-insensitive string to a Category.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console":
		return ConsoleCategory, nil
	case "system":
		return SystemCategory, nil
	case "file":
		return FileCategory, nil
	case "custom":
		return CustomCategory, nil
	}
	return CustomCategory, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// IsValidCategory returns true if the given category is one of the known values.
func IsValidCategory(c Category) bool {
	return c <= CustomCategory
}
