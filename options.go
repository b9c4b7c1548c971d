package quadgo

import (
	"log/slog"

	"github.com/hupe1980/quadgo/quadtree"
)

type options struct {
	capacity         int
	minNodeSize      float64
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Index constructor behavior.
type Option func(*options)

// WithCapacity configures the number of items a tree node holds before it
// subdivides. The default is quadtree.DefaultCapacity.
//
// Smaller capacities subdivide earlier (deeper trees, cheaper scans per
// node); larger capacities keep the tree shallower. Values <= 0 fall back to
// the default.
func WithCapacity(capacity int) Option {
	return func(o *options) {
		o.capacity = capacity
	}
}

// WithMinNodeSize configures the subdivision floor: a node whose width or
// height is at or below this value never subdivides and grows in place
// instead. This bounds recursion depth on degenerate boundaries. The default
// is quadtree.DefaultMinSize.
func WithMinNodeSize(minSize float64) Option {
	return func(o *options) {
		o.minNodeSize = minSize
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &quadgo.BasicMetricsCollector{}
//	idx := quadgo.New(bounds, quadgo.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		capacity:         quadtree.DefaultCapacity,
		minNodeSize:      quadtree.DefaultMinSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
