package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/wsfeed/wsfeed/pkg/allowlist"
	"github.com/wsfeed/wsfeed/pkg/cli/internal/output"
	"github.com/wsfeed/wsfeed/pkg/config"
)

// ValidateOutput is the JSON form of the validate command.
type ValidateOutput struct {
	File    string            `json:"file,omitempty"`
	Entries []EntryOutput     `json:"entries"`
	Config  *config.Config    `json:"config"`
	Sources map[string]string `json:"sources"`
}

// EntryOutput describes one parsed allow-list entry.
type EntryOutput struct {
	Entry    string `json:"entry"`
	HostOnly bool   `json:"hostOnly"`
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration and show the effective allow list",
	Long: `Validate loads every configuration layer, expands allow-list fragment files
and parses each entry exactly as watch would. It reports the first problem
found, with its file and line when it came from a config file.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	raw, err := cfg.AllowListEntries()
	if err != nil {
		return err
	}
	opts := []allowlist.Option{allowlist.WithLogger(logger)}
	if cfg.StrictHosts {
		opts = append(opts, allowlist.WithStrictHosts())
	}
	v, err := allowlist.New(raw, opts...)
	if err != nil {
		return err
	}

	out := ValidateOutput{File: cfg.File, Config: cfg, Sources: cfg.Sources}
	for _, e := range v.Entries() {
		out.Entries = append(out.Entries, EntryOutput{Entry: e.String(), HostOnly: e.HostOnly})
	}

	if jsonOutput {
		return output.JSON(out)
	}

	file := out.File
	if file == "" {
		file = "(none)"
	}
	if !cfg.Enabled {
		output.Warn("wsfeed is disabled (enabled: false); watch will refuse every url")
	}

	output.Heading("config file")
	fmt.Printf("  %s\n\n", file)

	output.Heading("allow list")
	w := output.Table()
	fmt.Fprintln(w, "  KIND\tENTRY")
	for _, e := range out.Entries {
		kind := "url"
		if e.HostOnly {
			kind = "host"
		}
		fmt.Fprintf(w, "  %s\t%s\n", kind, e.Entry)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()

	output.Heading("settings")
	w = output.Table()
	fmt.Fprintln(w, "  KEY\tVALUE\tSOURCE")
	keys := make([]string, 0, len(cfg.Sources))
	for k := range cfg.Sources {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", k, settingValue(cfg, k), cfg.Sources[k])
	}
	return w.Flush()
}

func settingValue(cfg *config.Config, key string) string {
	switch key {
	case config.KeyEnabled:
		return fmt.Sprint(cfg.Enabled)
	case config.KeyAllowedURIs:
		return cfg.AllowedURIs.String()
	case config.KeyAllowListFiles:
		return fmt.Sprint(cfg.AllowListFiles)
	case config.KeyStrictHosts:
		return fmt.Sprint(cfg.StrictHosts)
	case config.KeyTransport:
		return cfg.Transport
	case config.KeyReconnectDelay:
		return cfg.Reconnect.Delay.String()
	case config.KeyMaxRetries:
		return fmt.Sprint(cfg.Reconnect.MaxRetries)
	case config.KeyDialTimeout:
		return cfg.DialTimeout.String()
	case config.KeyMaxMessageSize:
		return fmt.Sprint(cfg.Limits.MaxMessageSize)
	case config.KeyMaxQueueDepth:
		return fmt.Sprint(cfg.Limits.MaxQueueDepth)
	case config.KeyLogLevel:
		return cfg.Log.Level
	case config.KeyLogFormat:
		return cfg.Log.Format
	case config.KeyLogFile:
		return cfg.Log.File
	case config.KeyMetricsAddr:
		return cfg.Metrics.Addr
	}
	return ""
}
