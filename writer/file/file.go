// Package file provides size-rotated log file writers backed by lumberjack.
package file

import (
	"errors"
	"fmt"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation limits applied to zero Config fields.
const (
	DefaultMaxSize    = 10 // megabytes
	DefaultMaxBackups = 3
)

var (
	// ErrNoFilename is returned when the configuration names no file.
	ErrNoFilename = errors.New("log file name is required")

	// ErrInvalidLimit is returned when a rotation limit is negative.
	ErrInvalidLimit = errors.New("rotation limits cannot be negative")
)

// Config holds the configuration for a rotating file writer.
type Config struct {
	// Filename is the file to write logs to. Missing directories are created on first write.
	Filename string
	// MaxSize is the maximum size in megabytes of the log file before it gets rotated.
	MaxSize int
	// MaxAge is the maximum number of days to retain old log files. Zero keeps them forever.
	MaxAge int
	// MaxBackups is the maximum number of old log files to retain.
	MaxBackups int
	// Compress determines if the rotated log files should be compressed using gzip.
	Compress bool
	// LocalTime uses local time instead of UTC in backup file names.
	LocalTime bool
}

// New returns a writer that appends to cfg.Filename and rotates it when it
// grows beyond MaxSize. Zero MaxSize and MaxBackups take the package defaults.
// The returned writer is safe for concurrent use.
func New(cfg Config) (*lumberjack.Logger, error) {
	if cfg.Filename == "" {
		return nil, ErrNoFilename
	}
	if cfg.MaxSize < 0 || cfg.MaxAge < 0 || cfg.MaxBackups < 0 {
		return nil, fmt.Errorf("%w: size=%d age=%d backups=%d", ErrInvalidLimit, cfg.MaxSize, cfg.MaxAge, cfg.MaxBackups)
	}

	if cfg.MaxSize == 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}

	return &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
		LocalTime:  cfg.LocalTime,
	}, nil
}
