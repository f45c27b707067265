package bark_test

import (
	"sync"

	"github.com/balinomad/go-bark"
	"github.com/balinomad/go-bark/handler"
)

// spyHandler records every event it acts on.
type spyHandler struct {
	mu       sync.Mutex
	name     string
	volume   bark.Level
	category bark.Category
	events   []bark.Event
	err      error
	onHandle func()
}

// Ensure spyHandler implements handler.Handler
var _ handler.Handler = (*spyHandler)(nil)

func newSpy(name string, category bark.Category, volume bark.Level) *spyHandler {
	return &spyHandler{name: name, category: category, volume: volume}
}

func (s *spyHandler) Name() string            { return s.name }
func (s *spyHandler) Volume() bark.Level      { return s.volume }
func (s *spyHandler) Category() bark.Category { return s.category }

func (s *spyHandler) Handle(e *bark.Event) error {
	if e.Level < s.volume {
		return nil
	}
	if s.onHandle != nil {
		s.onHandle()
	}

	s.mu.Lock()
	s.events = append(s.events, *e)
	s.mu.Unlock()

	return s.err
}

func (s *spyHandler) Events() []bark.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]bark.Event(nil), s.events...)
}

// countingDetector counts detection calls and returns a fixed tag.
type countingDetector struct {
	mu    sync.Mutex
	tag   string
	calls int
}

func (c *countingDetector) DetectTag() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls++
	return c.tag
}

func (c *countingDetector) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.calls
}

// syncSpy is a spy handler that also implements handler.Syncer.
type syncSpy struct {
	*spyHandler
	syncErr error
	synced  int
}

func (s *syncSpy) Sync() error {
	s.synced++
	return s.syncErr
}
