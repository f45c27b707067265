// Package handler defines the contract between the bark dispatcher and the
// output handlers it fans events out to, together with shared building blocks
// for handler implementations.
package handler

import (
	"io"
	"time"
)

// Handler is the contract every output handler must satisfy.
//
// The dispatcher does not pre-filter events on a handler's behalf:
// Handle is called for every event and must itself drop events whose
// level is below Volume.
type Handler interface {
	// Volume returns the minimum level this handler acts on.
	Volume() Level

	// Category returns the category used by the registration policy.
	Category() Category

	// Handle processes a log event. The event is only valid for the
	// duration of the call and must not be retained.
	// Returns error only for unrecoverable failures (disk full, etc.).
	Handle(e *Event) error
}

// Namer is implemented by handlers that provide a display name
// for diagnostic output.
type Namer interface {
	// Name returns a short, stable identifier of the handler type.
	Name() string
}

// Configurator enables runtime reconfiguration of handler settings.
type Configurator interface {
	// SetVolume changes the minimum level that will be processed.
	SetVolume(level Level) error

	// SetOutput changes the destination for log output.
	SetOutput(w io.Writer) error
}

// Syncer flushes any buffered log entries.
type Syncer interface {
	// Sync flushes buffered log entries. Returns error on flush failure.
	Sync() error
}

// Event represents a single log call. It is created per call, passed to
// every handler in registration order and then discarded.
type Event struct {
	Time    time.Time
	Level   Level
	Tag     string
	Message string
	Err     error   // Optional error attached to the call
	PC      uintptr // Program counter of the detected caller (0 if unavailable)
}

// Reset clears the event for reuse.
func (e *Event) Reset() {
	*e = Event{}
}
