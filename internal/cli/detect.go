package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/perfgen/perfgen/internal/detect"
)

// DetectResult is the detect command's output payload.
type DetectResult struct {
	Domain    string   `json:"domain"`
	Providers []string `json:"detected_ad_providers"`
}

// NewDetectCommand creates the detect command.
func NewDetectCommand(rootOpts *RootOptions) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "detect <domain>",
		Short: "Scan a domain for known ad providers",
		Long: `Fetch the domain's front page and report which ad providers are present,
by provider tag. The same scan runs for generate-config requests with
analyze_domain set.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runDetect(rootOpts, formatter, args[0], timeout)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", detect.DefaultTimeout, "page fetch timeout")

	return cmd
}

func runDetect(opts *RootOptions, formatter *OutputFormatter, domain string, timeout time.Duration) error {
	log := newLogger(opts)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tags, err := detect.New(timeout, log).Scan(ctx, domain)
	if err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("scan of %s failed", domain), err)
	}
	if tags == nil {
		tags = []string{}
	}

	if formatter.Format == "json" {
		return formatter.Success(DetectResult{Domain: domain, Providers: tags})
	}
	if len(tags) == 0 {
		return formatter.Success("no known ad providers detected")
	}
	for _, tag := range tags {
		fmt.Fprintln(formatter.Writer, tag)
	}
	return nil
}
