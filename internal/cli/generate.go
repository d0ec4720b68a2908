package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/perfgen/perfgen/internal/assemble"
	"github.com/perfgen/perfgen/internal/detect"
	"github.com/perfgen/perfgen/internal/engine"
	"github.com/perfgen/perfgen/internal/ruleset"
)

// NewGenerateCommand creates the generate command: a one-shot resolution
// without the HTTP server.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		rulesDir      string
		templatePath  string
		plugins       []string
		theme         string
		themes        []string
		themeParent   string
		themeChild    string
		domain        string
		analyzeDomain bool
		serialization string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a configuration from the command line",
		Long: `Resolve exclusion rules for the given plugins and themes and print the
assembled configuration. With --analyze-domain, the domain is scanned for
known ad providers first; a failed scan degrades to no detected providers.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:    rootOpts.Format,
				Writer:    cmd.OutOrStdout(),
				ErrWriter: cmd.ErrOrStderr(),
				Verbose:   rootOpts.Verbose,
			}
			return runGenerate(rootOpts, formatter, generateParams{
				rulesDir:      rulesDir,
				templatePath:  templatePath,
				plugins:       plugins,
				themeInput:    engine.ThemeInput{Theme: theme, Themes: themes, ThemeParent: themeParent, ThemeChild: themeChild},
				domain:        domain,
				analyzeDomain: analyzeDomain,
				serialization: serialization,
			})
		},
	}

	cmd.Flags().StringVar(&rulesDir, "rules", "config/rules", "rule dictionary directory")
	cmd.Flags().StringVar(&templatePath, "template", "config/template.json", "output template file")
	cmd.Flags().StringSliceVarP(&plugins, "plugin", "p", nil, "installed plugin (repeatable)")
	cmd.Flags().StringVar(&theme, "theme", "", "active theme")
	cmd.Flags().StringSliceVar(&themes, "themes", nil, "full theme set (overrides --theme)")
	cmd.Flags().StringVar(&themeParent, "theme-parent", "", "parent theme")
	cmd.Flags().StringVar(&themeChild, "theme-child", "", "child theme")
	cmd.Flags().StringVar(&domain, "domain", "", "site domain for ad-provider analysis")
	cmd.Flags().BoolVar(&analyzeDomain, "analyze-domain", false, "scan the domain for ad providers")
	cmd.Flags().StringVar(&serialization, "serialization", "newline", "exclusion list serialization (newline|array)")

	return cmd
}

type generateParams struct {
	rulesDir      string
	templatePath  string
	plugins       []string
	themeInput    engine.ThemeInput
	domain        string
	analyzeDomain bool
	serialization string
}

type generateOutput struct {
	Config            map[string]any        `json:"config"`
	ProcessingInfo    engine.ProcessingInfo `json:"processing_info"`
	DetectedProviders []string              `json:"detected_ad_providers"`
}

func runGenerate(opts *RootOptions, formatter *OutputFormatter, params generateParams) error {
	log := newLogger(opts)

	mode, err := assemble.ParseMode(params.serialization)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid serialization", err)
	}

	store, err := ruleset.LoadDir(params.rulesDir)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load rule store", err)
	}
	tpl, err := ruleset.LoadTemplate(params.templatePath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load template", err)
	}

	providers := []string{}
	if params.analyzeDomain && params.domain != "" {
		ctx, cancel := context.WithTimeout(context.Background(), detect.DefaultTimeout)
		defer cancel()
		tags, err := detect.New(0, log).Scan(ctx, params.domain)
		if err != nil {
			log.Warn().Err(err).Str("domain", params.domain).Msg("ad provider scan failed")
		} else {
			providers = tags
		}
	}

	formatter.VerboseLog("Resolving %d plugin(s), %d theme(s), %d provider tag(s)",
		len(params.plugins), len(params.themeInput.Sequence()), len(providers))

	res, err := engine.Resolve(params.plugins, params.themeInput.Sequence(), providers, store)
	if err != nil {
		return WrapExitError(ExitFailure, "resolution failed", err)
	}
	config, err := assemble.Assemble(tpl, res, mode)
	if err != nil {
		return WrapExitError(ExitFailure, "assembly failed", err)
	}

	return formatter.SuccessJSON(generateOutput{
		Config:            config,
		ProcessingInfo:    res.Info,
		DetectedProviders: providers,
	})
}
