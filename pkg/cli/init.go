package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/wsfeed/wsfeed/pkg/allowlist"
	"github.com/wsfeed/wsfeed/pkg/config"
	"github.com/wsfeed/wsfeed/pkg/stream"
)

var (
	initOutput      string
	initForce       bool
	initInteractive bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter .wsfeed.yaml",
	Long: `Init writes a configuration file holding the defaults and the allow list
given with --allow. With --interactive the values are prompted for instead.`,
	Example: `  wsfeed init --allow "example.com,wss://api.example.org:9443/live"
  wsfeed init -i
  wsfeed init --allow example.com --transport gorilla -o feeds.yaml --force`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initOutput, "output", "o", config.LocalConfigFileNames[0], "Output filename")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing config file")
	initCmd.Flags().BoolVarP(&initInteractive, "interactive", "i", false, "Interactive mode - prompts for configuration")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	cfg := config.NewDefault()
	allow := allowFlag
	tr := transport
	if tr == "" {
		tr = cfg.Transport
	}
	strict := false

	if initInteractive {
		if err := promptInit(&allow, &tr, &strict); err != nil {
			return err
		}
	}

	if allow == "" {
		return ErrAllowRequired
	}
	if err := checkAllowList(allow); err != nil {
		return err
	}

	for key, value := range map[string]string{
		config.KeyAllowedURIs: allow,
		config.KeyTransport:   tr,
		config.KeyStrictHosts: fmt.Sprint(strict),
	} {
		if err := cfg.Set(key, value, config.SourceFlag); err != nil {
			return err
		}
	}

	if err := cfg.WriteFile(initOutput, initForce); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", initOutput)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", initOutput)
	return nil
}

// checkAllowList parses list the way the gate will, so init never writes a
// file that watch would refuse.
func checkAllowList(list string) error {
	_, err := allowlist.NewFromString(list)
	return err
}

func promptInit(allow, tr *string, strict *bool) error {
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Allowed URIs").
				Description("Comma-separated hosts or full URLs, e.g. example.com,wss://api.example.org/live").
				Value(allow).
				Validate(checkAllowList),
			huh.NewSelect[string]().
				Title("Transport").
				Options(
					huh.NewOption("coder/websocket", stream.TransportCoder),
					huh.NewOption("gorilla/websocket", stream.TransportGorilla),
				).
				Value(tr),
			huh.NewConfirm().
				Title("Strict host names?").
				Description("Reject host-only entries that are not valid host names").
				Value(strict),
		),
	)
	return form.Run()
}
