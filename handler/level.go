package handler

import (
	"fmt"
	"strings"
)

// Level represents log severity levels.
type Level int32

// Levels are ordered from least to most severe.
// Ordinal comparison is the only filtering mechanism.
const (
	VerboseLevel Level = iota
	DebugLevel
	InfoLevel
	WarningLevel
	ErrorLevel
	CriticalLevel

	MinLevel     Level = VerboseLevel
	MaxLevel     Level = CriticalLevel
	DefaultLevel Level = VerboseLevel
)

// String returns a human-readable representation of the level.
func (l Level) String() string {
	switch l {
	case VerboseLevel:
		return "VERBOSE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	case CriticalLevel:
		return "CRITICAL"
	default:
		return fmt.Sprintf("UNKNOWN (%d)", l)
	}
}

// Label returns the bracketed display label, e.g. "[INFO]".
func (l Level) Label() string {
	return "[" + l.String() + "]"
}

// ParseLevel converts a string to a Level.
// It is case-insensitive and accepts "WARN" as an alias of "WARNING".
// If the string is not a valid level, it returns DefaultLevel and an error.
func ParseLevel(levelStr string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(levelStr)) {
	case "VERBOSE", "TRACE":
		return VerboseLevel, nil
	case "DEBUG":
		return DebugLevel, nil
	case "INFO":
		return InfoLevel, nil
	case "WARNING", "WARN":
		return WarningLevel, nil
	case "ERROR":
		return ErrorLevel, nil
	case "CRITICAL":
		return CriticalLevel, nil
	}
	return DefaultLevel, fmt.Errorf("%w: unknown level %q", ErrInvalidLevel, levelStr)
}

// IsValidLevel returns true if the given level is valid.
func IsValidLevel(level Level) bool {
	return level >= MinLevel && level <= MaxLevel
}

// ValidateLevel returns an error if the given level is invalid.
func ValidateLevel(level Level) error {
	if !IsValidLevel(level) {
		return NewInvalidLevelError(level)
	}
	return nil
}

// Levels returns all valid levels in ascending order.
func Levels() []Level {
	return []Level{VerboseLevel, DebugLevel, InfoLevel, WarningLevel, ErrorLevel, CriticalLevel}
}

// LevelMapper converts bark levels to backend-specific levels.
type LevelMapper[T any] struct {
	mappings [MaxLevel - MinLevel + 1]T
}

// NewLevelMapper creates a mapper with the given level mappings.
func NewLevelMapper[T any](verbose, debug, info, warning, err, critical T) *LevelMapper[T] {
	return &LevelMapper[T]{mappings: [...]T{verbose, debug, info, warning, err, critical}}
}

// Map converts a bark level to the backend level.
// Out of range levels are clamped to the nearest valid level.
func (m *LevelMapper[T]) Map(level Level) T {
	level = min(max(level, MinLevel), MaxLevel)
	return m.mappings[level-MinLevel]
}
