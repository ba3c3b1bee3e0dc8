package app

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/shelfsync/internal/config"
	"github.com/agentstation/shelfsync/pkg/logging"
)

// Execute runs the shelfsync CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func (a *App) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "shelfsync",
		Short:   "Sync a storefront catalog into a document store",
		Version: a.version,
		Long: `Shelfsync pages products and collections out of a Shopify shop and
reconciles them into a document store. Missing documents are created,
drifted documents are patched and everything else is left untouched.`,
		PersistentPreRunE: a.setupCommand,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	if a.out != nil {
		rootCmd.SetOut(a.out)
	}

	rootCmd.AddGroup(&cobra.Group{
		ID:    "core",
		Title: "Core Commands:",
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.flags.ConfigFile, "config", "", "config file (default is ./.shelfsync.yaml or $HOME/.shelfsync.yaml)")
	flags.BoolVarP(&a.flags.Verbose, "verbose", "v", false, "verbose output (shortcut for --log-level=debug)")
	flags.BoolVarP(&a.flags.Quiet, "quiet", "q", false, "minimal output (shortcut for --log-level=warn)")
	flags.StringVar(&a.flags.LogLevel, "log-level", "", "log level: trace, debug, info, warn, error (overrides -v/-q)")
	flags.StringVarP(&a.flags.Format, "format", "o", "", "output format: table, json, yaml")

	rootCmd.SetVersionTemplate("shelfsync {{.Version}}\n")

	rootCmd.AddCommand(a.NewSyncCommand())
	rootCmd.AddCommand(a.NewVersionCommand())

	return rootCmd
}

// setupCommand is called before any command runs.
func (a *App) setupCommand(cmd *cobra.Command, _ []string) error {
	if a.flags.ConfigFile != "" {
		cfg, err := config.Load(a.flags.ConfigFile)
		if err != nil {
			return err
		}
		a.config = cfg
	}

	if !a.loggerSet {
		logger := NewLogger(a.config, a.flags)
		a.logger = &logger
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))

	if a.config.ConfigFile != "" {
		a.logger.Debug().Str("file", a.config.ConfigFile).Msg("Loaded config file")
	}
	return nil
}

// ExitOnError prints err and exits with status 1. It does nothing when err
// is nil.
func ExitOnError(err error) {
	if err != nil {
		//nolint:errcheck // exiting anyway
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
