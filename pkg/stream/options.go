package stream

import (
	"log/slog"
	"time"

	"github.com/wsfeed/wsfeed/pkg/logging"
)

// Defaults for Worker timing.
const (
	DefaultReconnectDelay = 5 * time.Second
	DefaultDialTimeout    = 30 * time.Second
)

// Option configures a Worker or a Manager.
type Option func(*config)

type config struct {
	dialer         Dialer
	reconnectDelay time.Duration
	dialTimeout    time.Duration
	maxRetries     int
	maxMessageSize int64
	maxQueueDepth  int
	logger         *slog.Logger
	metrics        *Metrics
}

func newConfig(opts []Option) config {
	cfg := config{
		reconnectDelay: DefaultReconnectDelay,
		dialTimeout:    DefaultDialTimeout,
		logger:         logging.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.dialer == nil {
		cfg.dialer = &CoderDialer{MaxMessageSize: cfg.maxMessageSize}
	}
	return cfg
}

// WithDialer sets the transport. The default is a CoderDialer.
func WithDialer(d Dialer) Option {
	return func(c *config) {
		c.dialer = d
	}
}

// WithReconnectDelay sets the fixed back-off between a failure and the next
// dial. Negative values are ignored.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.reconnectDelay = d
		}
	}
}

// WithDialTimeout bounds each dial including the opening handshake.
func WithDialTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.dialTimeout = d
		}
	}
}

// WithMaxRetries makes the worker give up after n consecutive failed dials.
// Zero, the default, retries forever.
func WithMaxRetries(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxRetries = n
		}
	}
}

// WithMaxMessageSize disconnects, then reconnects, when a message is larger
// than n bytes. Zero, the default, means unbounded.
func WithMaxMessageSize(n int64) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxMessageSize = n
		}
	}
}

// WithMaxQueueDepth caps the queue a Manager creates. Zero means unbounded.
func WithMaxQueueDepth(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.maxQueueDepth = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the collectors the worker reports to.
func WithMetrics(m *Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
