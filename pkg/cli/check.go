package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wsfeed/wsfeed/pkg/cli/internal/output"
	"github.com/wsfeed/wsfeed/pkg/session"
)

// CheckResult is the JSON form of one decision.
type CheckResult struct {
	URL       string `json:"url"`
	Allowed   bool   `json:"allowed"`
	Canonical string `json:"canonical,omitempty"`
	Entry     string `json:"entry,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

var checkCmd = &cobra.Command{
	Use:   "check <url>...",
	Short: "Check URLs against the allow list",
	Long: `Check decides, without connecting, whether each URL would be admitted.
It exits with status 1 when any URL is denied.`,
	Example: `  wsfeed check --allow example.com http://example.com/feed
  wsfeed check --json wss://api.example.org:9443/live`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	gate, err := session.NewGate(cfg, session.WithLogger(logger))
	if err != nil {
		return err
	}

	results := make([]CheckResult, 0, len(args))
	denied := 0
	for _, arg := range args {
		d, err := gate.Check(arg)
		if errors.Is(err, session.ErrDisabled) {
			return ErrFeedDisabled
		}
		if err != nil {
			return err
		}

		r := CheckResult{URL: arg, Allowed: d.Allowed, Reason: d.Reason}
		if d.URI != nil {
			r.Canonical = d.URI.URL().Redacted()
		}
		if d.Allowed {
			r.Entry = d.Entry.String()
		} else {
			denied++
		}
		results = append(results, r)
	}

	if jsonOutput {
		if err := output.JSON(results); err != nil {
			return err
		}
	} else {
		w := output.Table()
		for _, r := range results {
			if r.Allowed {
				fmt.Fprintf(w, "allowed\t%s\t%s\t(%s)\n", r.URL, r.Canonical, r.Entry)
			} else {
				fmt.Fprintf(w, "denied\t%s\t%s\t\n", r.URL, r.Reason)
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	if denied > 0 {
		return fmt.Errorf("%w: %d of %d", ErrURLsDenied, denied, len(results))
	}
	return nil
}
