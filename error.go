package bark

import (
	"errors"
	"fmt"
)

// ErrNilDetector is returned when a nil TagDetector is configured.
var ErrNilDetector = errors.New("detector cannot be nil")

// optionError returns an error with ErrOptionApplyFailed.
func optionError(option string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrOptionApplyFailed, option, err)
}
