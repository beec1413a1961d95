package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wsfeed/wsfeed/pkg/stream"
)

// Keys accepted by Set and recorded in Sources.
const (
	KeyEnabled        = "enabled"
	KeyAllowedURIs    = "allowedUris"
	KeyAllowListFiles = "allowListFiles"
	KeyStrictHosts    = "strictHosts"
	KeyTransport      = "transport"
	KeyReconnectDelay = "reconnect.delay"
	KeyMaxRetries     = "reconnect.maxRetries"
	KeyDialTimeout    = "dialTimeout"
	KeyMaxMessageSize = "limits.maxMessageSize"
	KeyMaxQueueDepth  = "limits.maxQueueDepth"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyLogFile        = "log.file"
	KeyMetricsAddr    = "metrics.addr"
)

// Set assigns a value given in string form, as environment variables and
// flags supply them, and records source for key.
func (c *Config) Set(key, value, source string) error {
	value = strings.TrimSpace(value)

	if err := c.set(key, value); err != nil {
		return err
	}

	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	c.Sources[key] = source
	return nil
}

func (c *Config) set(key, value string) error {
	var err error
	switch key {
	case KeyEnabled:
		var b bool
		if b, err = parseBool(value); err == nil {
			c.Enabled = b
		}
	case KeyAllowedURIs:
		c.AllowedURIs = SplitList(value)
	case KeyAllowListFiles:
		c.AllowListFiles = SplitList(value)
	case KeyStrictHosts:
		var b bool
		if b, err = parseBool(value); err == nil {
			c.StrictHosts = b
		}
	case KeyTransport:
		if err = checkOneOf(value, stream.TransportCoder, stream.TransportGorilla); err == nil {
			c.Transport = strings.ToLower(value)
		}
	case KeyReconnectDelay:
		var d Duration
		if d, err = ParseDuration(value); err == nil {
			c.Reconnect.Delay = d
		}
	case KeyMaxRetries:
		var n int
		if n, err = parseCount(value); err == nil {
			c.Reconnect.MaxRetries = n
		}
	case KeyDialTimeout:
		var d Duration
		if d, err = ParseDuration(value); err == nil {
			c.DialTimeout = d
		}
	case KeyMaxMessageSize:
		var n int
		if n, err = parseCount(value); err == nil {
			c.Limits.MaxMessageSize = int64(n)
		}
	case KeyMaxQueueDepth:
		var n int
		if n, err = parseCount(value); err == nil {
			c.Limits.MaxQueueDepth = n
		}
	case KeyLogLevel:
		if err = checkOneOf(value, "debug", "info", "warn", "warning", "error"); err == nil {
			c.Log.Level = strings.ToLower(value)
		}
	case KeyLogFormat:
		if err = checkOneOf(value, "text", "json"); err == nil {
			c.Log.Format = strings.ToLower(value)
		}
	case KeyLogFile:
		c.Log.File = value
	case KeyMetricsAddr:
		c.Metrics.Addr = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidValue, key, err)
	}
	return nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not a boolean", s)
}

func parseCount(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%d is negative", n)
	}
	return n, nil
}

func checkOneOf(s string, allowed ...string) error {
	for _, a := range allowed {
		if strings.EqualFold(s, a) {
			return nil
		}
	}
	return fmt.Errorf("%q is not one of %s", s, strings.Join(allowed, ", "))
}
