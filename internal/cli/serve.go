package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/perfgen/perfgen/internal/assemble"
	"github.com/perfgen/perfgen/internal/detect"
	"github.com/perfgen/perfgen/internal/history"
	"github.com/perfgen/perfgen/internal/ruleset"
	"github.com/perfgen/perfgen/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		configPath string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the configuration generator HTTP API",
		Long: `Run the HTTP API that generates performance plugin configurations.

The rule store and template are loaded once at startup and can be reloaded
at runtime via POST /reload-config without a restart.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, configPath, listen)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "server config file (YAML)")
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config file)")

	return cmd
}

func runServe(opts *RootOptions, configPath, listen string) error {
	log := newLogger(opts)

	cfg, err := LoadServerConfig(configPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid server config", err)
	}
	if listen != "" {
		cfg.Listen = listen
	}
	mode, err := assemble.ParseMode(cfg.Serialization)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid server config", err)
	}

	// The initial load is the only fatal one; later reload failures keep
	// the running snapshot.
	holder := ruleset.NewHolder(cfg.RulesDir, cfg.TemplatePath)
	if err := holder.Reload(); err != nil {
		return WrapExitError(ExitCommandError, "failed to load rule store", err)
	}
	log.Info().Str("rules_dir", cfg.RulesDir).Str("template", cfg.TemplatePath).Msg("rule store loaded")

	var hist *history.Store
	if cfg.DatabasePath != "" {
		hist, err = history.Open(cfg.DatabasePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open history database", err)
		}
		defer hist.Close()
	}

	srv := server.New(server.Config{
		Address:       cfg.Listen,
		Holder:        holder,
		History:       hist,
		Detector:      detect.New(cfg.DetectTimeout.Std(), log),
		Serialization: mode,
		Logger:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "http server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	return nil
}
