package config

import (
	"errors"
	"fmt"
	"os"
)

// Environment variable names
const (
	EnvConfig         = "WSFEED_CONFIG"
	EnvEnabled        = "WSFEED_ENABLED"
	EnvAllowedURIs    = "WSFEED_ALLOWED_URIS"
	EnvStrictHosts    = "WSFEED_STRICT_HOSTS"
	EnvTransport      = "WSFEED_TRANSPORT"
	EnvReconnectDelay = "WSFEED_RECONNECT_DELAY"
	EnvMaxRetries     = "WSFEED_MAX_RETRIES"
	EnvDialTimeout    = "WSFEED_DIAL_TIMEOUT"
	EnvMaxMessageSize = "WSFEED_MAX_MESSAGE_SIZE"
	EnvMaxQueueDepth  = "WSFEED_MAX_QUEUE_DEPTH"
	EnvLogLevel       = "WSFEED_LOG_LEVEL"
	EnvLogFormat      = "WSFEED_LOG_FORMAT"
	EnvLogFile        = "WSFEED_LOG_FILE"
	EnvMetricsAddr    = "WSFEED_METRICS_ADDR"
)

var envKeys = []struct {
	env string
	key string
}{
	{EnvEnabled, KeyEnabled},
	{EnvAllowedURIs, KeyAllowedURIs},
	{EnvStrictHosts, KeyStrictHosts},
	{EnvTransport, KeyTransport},
	{EnvReconnectDelay, KeyReconnectDelay},
	{EnvMaxRetries, KeyMaxRetries},
	{EnvDialTimeout, KeyDialTimeout},
	{EnvMaxMessageSize, KeyMaxMessageSize},
	{EnvMaxQueueDepth, KeyMaxQueueDepth},
	{EnvLogLevel, KeyLogLevel},
	{EnvLogFormat, KeyLogFormat},
	{EnvLogFile, KeyLogFile},
	{EnvMetricsAddr, KeyMetricsAddr},
}

// LoadEnv applies WSFEED_* environment variables to cfg. Unset and empty
// variables are ignored.
func LoadEnv(cfg *Config) error {
	var errs []error
	for _, e := range envKeys {
		v := os.Getenv(e.env)
		if v == "" {
			continue
		}
		if err := cfg.Set(e.key, v, SourceEnv); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.env, err))
		}
	}
	return errors.Join(errs...)
}
