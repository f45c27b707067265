package handler

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// ComplianceChecker provides granular compliance verification for handler implementations.
// Most users should use ComplianceTest directly. This interface is primarily for
// custom test scenarios and internal testing of the compliance logic itself.
type ComplianceChecker interface {
	// CheckVolume verifies that the handler reports a valid volume.
	CheckVolume(h Handler) error

	// CheckCategory verifies that the handler reports a known category.
	CheckCategory(h Handler) error

	// CheckHandle verifies that the handler processes an event without error.
	CheckHandle(h Handler, e *Event) error

	// CheckConfigurator verifies that SetVolume is applied and rejects invalid levels.
	// This method should only be called if the handler implements Configurator.
	CheckConfigurator(c Configurator, h Handler) error
}

// NewComplianceChecker returns a new compliance checker instance.
func NewComplianceChecker() ComplianceChecker {
	return &checker{}
}

type checker struct{}

// Ensure checker implements ComplianceChecker
var _ ComplianceChecker = (*checker)(nil)

// CheckVolume verifies that the handler volume is a valid level.
func (c *checker) CheckVolume(h Handler) error {
	if !IsValidLevel(h.Volume()) {
		return fmt.Errorf("handler volume %d is not a valid level", h.Volume())
	}
	return nil
}

// CheckCategory verifies that the handler category is a known category.
func (c *checker) CheckCategory(h Handler) error {
	if !IsValidCategory(h.Category()) {
		return fmt.Errorf("handler category %d is not a valid category", h.Category())
	}
	return nil
}

// CheckHandle verifies that the handler processes a valid event without error.
func (c *checker) CheckHandle(h Handler, e *Event) error {
	if err := h.Handle(e); err != nil {
		return err
	}
	return nil
}

// CheckConfigurator verifies that SetVolume changes Volume and rejects invalid levels.
func (c *checker) CheckConfigurator(cfg Configurator, h Handler) error {
	if err := cfg.SetVolume(ErrorLevel); err != nil {
		return fmt.Errorf("SetVolume(ErrorLevel) failed: %w", err)
	}
	if h.Volume() != ErrorLevel {
		return fmt.Errorf("Volume() = %v after SetVolume(ErrorLevel)", h.Volume())
	}
	if err := cfg.SetVolume(MaxLevel + 1); err == nil {
		return errors.New("SetVolume accepted an invalid level")
	}
	if err := cfg.SetOutput(nil); err == nil {
		return errors.New("SetOutput accepted a nil writer")
	}
	return nil
}

// ComplianceTest runs comprehensive compliance tests against a Handler implementation.
// Third-party handler authors can use this to verify their implementations meet
// the handler.Handler interface contract.
//
// The test suite covers:
//   - Volume: Verifies the handler reports a valid level
//   - Category: Verifies the handler reports a known category
//   - Handle: Verifies handler processes events at every level without error
//   - Configurator: Verifies runtime reconfiguration (skipped if not implemented)
//
// Example usage:
//
//	func TestMyHandlerCompliance(t *testing.T) {
//	    handler.ComplianceTest(t, func() (handler.Handler, error) {
//	        return NewMyHandler(...)
//	    })
//	}
func ComplianceTest(t *testing.T, newHandler func() (Handler, error)) {
	t.Helper()
	checker := NewComplianceChecker()

	t.Run("volume", func(t *testing.T) {
		h, err := newHandler()
		if err != nil {
			t.Fatalf("newHandler() failed: %v", err)
		}

		if err := checker.CheckVolume(h); err != nil {
			t.Error(err)
		}
	})

	t.Run("category", func(t *testing.T) {
		h, err := newHandler()
		if err != nil {
			t.Fatalf("newHandler() failed: %v", err)
		}

		if err := checker.CheckCategory(h); err != nil {
			t.Error(err)
		}
	})

	t.Run("handle", func(t *testing.T) {
		h, err := newHandler()
		if err != nil {
			t.Fatalf("newHandler() failed: %v", err)
		}

		for _, level := range Levels() {
			e := &Event{
				Time:    time.Now(),
				Level:   level,
				Tag:     "Compliance",
				Message: "test",
			}
			if level >= ErrorLevel {
				e.Err = errors.New("test error")
			}

			if err := checker.CheckHandle(h, e); err != nil {
				t.Errorf("Handle(%v) failed: %v", level, err)
			}
		}
	})

	t.Run("configurator", func(t *testing.T) {
		h, err := newHandler()
		if err != nil {
			t.Fatalf("newHandler() failed: %v", err)
		}

		cfg, ok := h.(Configurator)
		if !ok {
			t.Skip("handler does not implement Configurator")
			return
		}

		if err := checker.CheckConfigurator(cfg, h); err != nil {
			t.Error(err)
		}
	})
}
