package handler

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrInvalidLevel      = errors.New("invalid level")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrAtomicWriterFail  = errors.New("failed to create atomic writer")
	ErrOptionApplyFailed = errors.New("failed to apply option")
	ErrInvalidFormat     = errors.New("invalid format")
	ErrNilWriter         = errors.New("writer cannot be nil")
	ErrNilHandler        = errors.New("handler cannot be nil")
)

// NewAtomicWriterError returns an error with ErrAtomicWriterFail.
func NewAtomicWriterError(err error) error {
	return fmt.Errorf("%w: %w", ErrAtomicWriterFail, err)
}

// NewOptionApplyError returns an error with ErrOptionApplyFailed naming the failed option.
func NewOptionApplyError(option string, err error) error {
	return fmt.Errorf("%w %s: %w", ErrOptionApplyFailed, option, err)
}

// NewInvalidFormatError returns an error with ErrInvalidFormat.
func NewInvalidFormatError(format string, accepted []string) error {
	return fmt.Errorf("%w: %q, must be one of %v", ErrInvalidFormat, format, accepted)
}

// NewInvalidLevelError returns an error with ErrInvalidLevel when a Level is out of range.
func NewInvalidLevelError(level Level) error {
	return fmt.Errorf("%w: %d, must be between %d and %d", ErrInvalidLevel, level, MinLevel, MaxLevel)
}
