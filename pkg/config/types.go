package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete wsfeed configuration.
type Config struct {
	// Enabled switches the feature off entirely when false.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// AllowedURIs are the inline allow-list entries.
	AllowedURIs AllowList `yaml:"allowedUris,omitempty" json:"allowedUris,omitempty"`
	// AllowListFiles are glob patterns of fragment files with one entry per line.
	AllowListFiles []string `yaml:"allowListFiles,omitempty" json:"allowListFiles,omitempty"`
	// StrictHosts rejects host-only entries that are not valid host names.
	StrictHosts bool `yaml:"strictHosts" json:"strictHosts"`

	// Transport selects the WebSocket library: coder or gorilla.
	Transport   string          `yaml:"transport" json:"transport"`
	Reconnect   ReconnectConfig `yaml:"reconnect" json:"reconnect"`
	DialTimeout Duration        `yaml:"dialTimeout" json:"dialTimeout"`
	Limits      LimitsConfig    `yaml:"limits" json:"limits"`

	Log     LogConfig     `yaml:"log" json:"log"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// File is the path of the file that was loaded last, if any.
	File string `yaml:"-" json:"file,omitempty"`
	// Sources tracks where each value came from (for debugging).
	Sources map[string]string `yaml:"-" json:"-"`

	// fragmentBase is the directory AllowListFiles patterns are relative to.
	fragmentBase string
}

// ReconnectConfig controls the back-off between connection attempts.
type ReconnectConfig struct {
	Delay Duration `yaml:"delay" json:"delay"`
	// MaxRetries is the number of consecutive failures tolerated. 0 retries forever.
	MaxRetries int `yaml:"maxRetries" json:"maxRetries"`
}

// LimitsConfig holds optional resource bounds. Zero means unbounded.
type LimitsConfig struct {
	MaxMessageSize int64 `yaml:"maxMessageSize" json:"maxMessageSize"`
	MaxQueueDepth  int   `yaml:"maxQueueDepth" json:"maxQueueDepth"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File, when set, receives a JSON copy of every record.
	File string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr,omitempty" json:"addr,omitempty"`
}

// Source identifies where a config value originated.
const (
	SourceDefault = "default"
	SourceGlobal  = "global"
	SourceLocal   = "local"
	SourceFile    = "file"
	SourceEnv     = "env"
	SourceFlag    = "flag"
)

// AllowList is a list of allow-list entries. In YAML it may be written as a
// comma-separated string or as a sequence.
type AllowList []string

// UnmarshalYAML accepts both the scalar and the sequence form.
func (a *AllowList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*a = SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*a = AllowList(items)
		return nil
	default:
		return fmt.Errorf("line %d: allowedUris must be a string or a list", node.Line)
	}
}

// String renders the list in its comma-separated form.
func (a AllowList) String() string {
	return strings.Join(a, ",")
}

// SplitList splits a comma-separated list, trimming entries and dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Duration is a time.Duration that reads either a Go duration string ("5s")
// or a plain integer number of milliseconds.
type Duration time.Duration

// ParseDuration parses the string form accepted in files and environment variables.
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("negative duration %q", s)
		}
		return Duration(time.Duration(ms) * time.Millisecond), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return Duration(d), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	v, err := ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration: %w", node.Line, err)
	}
	*d = v
	return nil
}

// MarshalYAML writes the string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// MarshalText writes the string form, used for JSON output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}
