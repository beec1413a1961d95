package config

import (
	"time"

	"github.com/wsfeed/wsfeed/pkg/stream"
)

// Defaults.
const (
	DefaultEnabled     = true
	DefaultTransport   = stream.TransportCoder
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultDelay       = Duration(stream.DefaultReconnectDelay)
	DefaultDialTimeout = Duration(stream.DefaultDialTimeout)
)

// NewDefault creates a new Config with default values.
func NewDefault() *Config {
	cfg := &Config{
		Enabled:     DefaultEnabled,
		Transport:   DefaultTransport,
		Reconnect:   ReconnectConfig{Delay: DefaultDelay},
		DialTimeout: DefaultDialTimeout,
		Log:         LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Sources:     make(map[string]string),
	}

	for _, key := range []string{
		KeyEnabled,
		KeyStrictHosts,
		KeyTransport,
		KeyReconnectDelay,
		KeyMaxRetries,
		KeyDialTimeout,
		KeyMaxMessageSize,
		KeyMaxQueueDepth,
		KeyLogLevel,
		KeyLogFormat,
	} {
		cfg.Sources[key] = SourceDefault
	}

	return cfg
}

// ReconnectDelay returns the back-off as a time.Duration.
func (c *Config) ReconnectDelay() time.Duration {
	return c.Reconnect.Delay.Std()
}
