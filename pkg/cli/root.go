package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/wsfeed/wsfeed/pkg/config"
	"github.com/wsfeed/wsfeed/pkg/logging"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	allowFlag  string
	transport  string
	logLevel   string
	logFormat  string
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "wsfeed",
	Short: "wsfeed connects to allow-listed WebSocket feeds",
	Long: `wsfeed admits WebSocket targets against an operator allow list and keeps
a resilient connection to them, buffering every text message it receives.

Configuration can be provided via flags, WSFEED_* environment variables, or a
configuration file. wsfeed reads the global file from the user config directory
(wsfeed/config.yaml) and then .wsfeed.yaml in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Main()
}

// Main runs the command tree and returns the process exit code.
func Main() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// Execute runs Main and exits. This is called by main.main().
func Execute() {
	os.Exit(Main())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (replaces the global and local files)")
	rootCmd.PersistentFlags().StringVar(&allowFlag, "allow", "", "Comma-separated allow-list entries (overrides allowedUris)")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "", "WebSocket transport: coder or gorilla")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = []struct {
	flag string
	key  string
}{
	{"allow", config.KeyAllowedURIs},
	{"transport", config.KeyTransport},
	{"log-level", config.KeyLogLevel},
	{"log-format", config.KeyLogFormat},
}

// loadConfig loads files and environment, then applies the flags the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Path: configPath})
	if err != nil {
		return nil, err
	}

	for _, fk := range flagKeys {
		f := cmd.Flag(fk.flag)
		if f == nil || !f.Changed {
			continue
		}
		if err := cfg.Set(fk.key, f.Value.String(), config.SourceFlag); err != nil {
			return nil, fmt.Errorf("--%s: %w", fk.flag, err)
		}
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg. Logs go to stderr so that
// command output on stdout stays parseable.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	lc := logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	}
	if cfg.Log.File == "" {
		return logging.New(lc), nopCloser{}, nil
	}
	return logging.NewWithFile(lc, cfg.Log.File)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
