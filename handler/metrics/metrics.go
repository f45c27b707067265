// Package metrics provides a CUSTOM category handler that counts log
// events in a Prometheus counter instead of printing them.
//
// Being a custom handler it can be registered next to any console,
// system or file handler.
package metrics

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/balinomad/go-bark/handler"
)

// DefaultName is the default metric name.
const DefaultName = "bark_events_total"

// metricsOptions holds configuration for the metrics handler.
type metricsOptions struct {
	base       *handler.BaseOptions
	registerer prometheus.Registerer
	namespace  string
	subsystem  string
	name       string
	tagLabel   bool
}

// MetricsOption configures metrics handler creation.
type MetricsOption func(*metricsOptions) error

// WithVolume sets the minimum level.
func WithVolume(level handler.Level) MetricsOption {
	return func(o *metricsOptions) error {
		return handler.WithVolume(level)(o.base)
	}
}

// WithRegisterer sets the registry the counter is registered with.
// Defaults to prometheus.DefaultRegisterer.
func WithRegisterer(r prometheus.Registerer) MetricsOption {
	return func(o *metricsOptions) error {
		if r == nil {
			return handler.NewOptionApplyError("WithRegisterer", errors.New("registerer cannot be nil"))
		}
		o.registerer = r
		return nil
	}
}

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(o *metricsOptions) error {
		o.namespace = namespace
		return nil
	}
}

// WithSubsystem sets the metric subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(o *metricsOptions) error {
		o.subsystem = subsystem
		return nil
	}
}

// WithName sets the metric name. Defaults to DefaultName.
func WithName(name string) MetricsOption {
	return func(o *metricsOptions) error {
		if name == "" {
			return handler.NewOptionApplyError("WithName", errors.New("name cannot be empty"))
		}
		o.name = name
		return nil
	}
}

// WithTagLabel enables or disables the "tag" label. Enabled by default.
// Disable it when tags are unbounded, e.g. derived from dynamic type names.
func WithTagLabel(enabled bool) MetricsOption {
	return func(o *metricsOptions) error {
		o.tagLabel = enabled
		return nil
	}
}

// WithTestMode sets the behavior during test runs. Defaults to handler.TestModeAlways.
func WithTestMode(mode handler.TestMode) MetricsOption {
	return func(o *metricsOptions) error {
		return handler.WithTestMode(mode)(o.base)
	}
}

// WithTestDetector replaces the test-environment detector.
func WithTestDetector(isTesting func() bool) MetricsOption {
	return func(o *metricsOptions) error {
		return handler.WithTestDetector(isTesting)(o.base)
	}
}

// metricsHandler increments a counter per handled event.
type metricsHandler struct {
	base     *handler.BaseHandler
	events   *prometheus.CounterVec
	tagLabel bool
}

// Ensure metricsHandler implements the following interfaces.
var (
	_ handler.Handler = (*metricsHandler)(nil)
	_ handler.Namer   = (*metricsHandler)(nil)
)

// New creates a metrics handler and registers its counter.
// If an identical counter is already registered, it is reused, so several
// handlers may share one metric.
func New(opts ...MetricsOption) (handler.Handler, error) {
	o := &metricsOptions{
		base: &handler.BaseOptions{
			Volume:   handler.DefaultLevel,
			Category: handler.CustomCategory,
			Output:   io.Discard,
			TestMode: handler.TestModeAlways,
		},
		registerer: prometheus.DefaultRegisterer,
		name:       DefaultName,
		tagLabel:   true,
	}

	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	base, err := handler.NewBaseHandler(o.base)
	if err != nil {
		return nil, err
	}

	labels := []string{"level", "error"}
	if o.tagLabel {
		labels = append(labels, "tag")
	}

	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: o.namespace,
		Subsystem: o.subsystem,
		Name:      o.name,
		Help:      "Number of log events handled, by level and tag.",
	}, labels)

	if err := o.registerer.Register(events); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, err
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		events = existing
	}

	return &metricsHandler{
		base:     base,
		events:   events,
		tagLabel: o.tagLabel,
	}, nil
}

// Handle implements the handler.Handler interface.
func (h *metricsHandler) Handle(e *handler.Event) error {
	if !h.base.ShouldHandle(e.Level) {
		return nil
	}

	values := []string{strings.ToLower(e.Level.String()), strconv.FormatBool(e.Err != nil)}
	if h.tagLabel {
		values = append(values, e.Tag)
	}

	c, err := h.events.GetMetricWithLabelValues(values...)
	if err != nil {
		return err
	}
	c.Inc()

	return nil
}

// Volume returns the minimum level.
func (h *metricsHandler) Volume() handler.Level {
	return h.base.Volume()
}

// Category returns handler.CustomCategory.
func (h *metricsHandler) Category() handler.Category {
	return h.base.Category()
}

// Name returns the handler display name.
func (h *metricsHandler) Name() string {
	return "metrics"
}

// SetVolume dynamically changes the minimum level of events that will be counted.
func (h *metricsHandler) SetVolume(level handler.Level) error {
	return h.base.SetVolume(level)
}
