package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// GlobalConfigDir is the directory under the user config dir for the global file.
const GlobalConfigDir = "wsfeed"

// LocalConfigFileNames are the names to search for local config (in order).
var LocalConfigFileNames = []string{".wsfeed.yaml", ".wsfeed.yml"}

// GlobalConfigFileNames are the names to search for global config (in order).
var GlobalConfigFileNames = []string{"config.yaml", "config.yml"}

// LoadOptions controls Load.
type LoadOptions struct {
	// Path is an explicit config file. It replaces the global and local
	// files. When empty, WSFEED_CONFIG is consulted.
	Path string
	// Dir is searched for the local file. Empty means the working directory.
	Dir string
	// SkipGlobal ignores the global file.
	SkipGlobal bool
}

// Load builds the configuration from defaults, files and the environment.
// Flags are applied afterwards by the caller with Set.
func Load(opts LoadOptions) (*Config, error) {
	cfg := NewDefault()

	path := opts.Path
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path != "" {
		if err := cfg.MergeFile(path, SourceFile); err != nil {
			return nil, err
		}
	} else {
		if !opts.SkipGlobal {
			if p := FindGlobalConfig(); p != "" {
				if err := cfg.MergeFile(p, SourceGlobal); err != nil {
					return nil, err
				}
			}
		}
		if p := FindLocalConfig(opts.Dir); p != "" {
			if err := cfg.MergeFile(p, SourceLocal); err != nil {
				return nil, err
			}
		}
	}

	if err := LoadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindLocalConfig returns the first local config file in dir, or "".
func FindLocalConfig(dir string) string {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// FindGlobalConfig returns the path to the global config file, or "".
func FindGlobalConfig() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range GlobalConfigFileNames {
		path := filepath.Join(configDir, GlobalConfigDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// MergeFile validates the file at path and applies every key it sets on top
// of c, recording source for each.
func (c *Config) MergeFile(path, source string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ConfigError{Path: path, Message: err.Error(), Err: err}
	}
	return c.merge(path, data, source)
}

func (c *Config) merge(path string, data []byte, source string) error {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return yamlError(path, err)
	}
	if len(root.Content) == 0 {
		return nil
	}

	if err := validateNode(path, &root); err != nil {
		return err
	}

	// Decoding into the existing value only touches keys present in the file.
	if err := root.Decode(c); err != nil {
		return yamlError(path, err)
	}

	if c.Sources == nil {
		c.Sources = make(map[string]string)
	}
	for _, key := range setKeys(root.Content[0], "") {
		c.Sources[key] = source
		if key == KeyAllowListFiles {
			c.fragmentBase = filepath.Dir(path)
		}
	}
	c.File = path
	return nil
}

// setKeys lists the dotted keys a mapping node sets. Only one level of
// nesting exists in the schema.
func setKeys(node *yaml.Node, prefix string) []string {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	var keys []string
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := prefix + node.Content[i].Value
		if val := node.Content[i+1]; val.Kind == yaml.MappingNode && prefix == "" {
			keys = append(keys, setKeys(val, key+".")...)
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

func yamlError(path string, err error) error {
	ce := &ConfigError{Path: path, Message: err.Error(), Err: err}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		ce.Line, _ = strconv.Atoi(m[1])
		ce.Column = 1
	}
	return ce
}

// Validate checks values that may have been set programmatically.
func (c *Config) Validate() error {
	for key, value := range map[string]string{
		KeyTransport: c.Transport,
		KeyLogLevel:  c.Log.Level,
		KeyLogFormat: c.Log.Format,
	} {
		probe := Config{}
		if err := probe.set(key, value); err != nil {
			return err
		}
	}
	if c.Reconnect.Delay < 0 || c.DialTimeout < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidValue)
	}
	if c.Reconnect.MaxRetries < 0 || c.Limits.MaxMessageSize < 0 || c.Limits.MaxQueueDepth < 0 {
		return fmt.Errorf("%w: limits must not be negative", ErrInvalidValue)
	}
	return nil
}
