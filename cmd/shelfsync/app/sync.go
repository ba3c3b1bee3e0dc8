package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/shelfsync"
	"github.com/agentstation/shelfsync/internal/cmd/output"
	"github.com/agentstation/shelfsync/pkg/catalog"
	"github.com/agentstation/shelfsync/pkg/documents"
	"github.com/agentstation/shelfsync/pkg/logging"
	"github.com/agentstation/shelfsync/pkg/reconciler"
)

// syncFlags are shared by every sync subcommand.
type syncFlags struct {
	store       string
	storePath   string
	databaseURL string
	concurrency int
	pacingDelay time.Duration
	timeout     time.Duration
	dryRun      bool
}

// NewSyncCommand creates the sync command and its subcommands.
func (a *App) NewSyncCommand() *cobra.Command {
	flags := &syncFlags{}

	cmd := &cobra.Command{
		Use:     "sync",
		GroupID: "core",
		Short:   "Sync products or collections into the document store",
		Long: `Sync fetches entities from the shop and reconciles each one into the
document store.

  shelfsync sync products              # every product
  shelfsync sync collection summer     # one collection by handle
  shelfsync sync products --dry-run    # report writes without making them`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.store, "store", "", "document store driver: memory, file, postgres")
	pf.StringVar(&flags.storePath, "store-path", "", "directory for the file store")
	pf.StringVar(&flags.databaseURL, "database-url", "", "connection string for the postgres store")
	pf.IntVar(&flags.concurrency, "concurrency", 0, "reconciliations in flight at once")
	pf.DurationVar(&flags.pacingDelay, "pacing-delay", 0, "delay before each document lookup")
	pf.DurationVar(&flags.timeout, "timeout", 0, "upper bound for the whole sync (0 disables)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "report writes without making them")

	for _, kind := range catalog.Kinds() {
		cmd.AddCommand(a.newSyncAllCommand(kind, flags))
		cmd.AddCommand(a.newSyncHandleCommand(kind, flags))
	}
	return cmd
}

func (a *App) newSyncAllCommand(kind catalog.Kind, flags *syncFlags) *cobra.Command {
	return &cobra.Command{
		Use:   kind.String() + "s",
		Short: fmt.Sprintf("Sync every %s", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSync(cmd, flags, kind, "")
		},
	}
}

func (a *App) newSyncHandleCommand(kind catalog.Kind, flags *syncFlags) *cobra.Command {
	return &cobra.Command{
		Use:   kind.String() + " <handle>",
		Short: fmt.Sprintf("Sync one %s by handle", kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSync(cmd, flags, kind, args[0])
		},
	}
}

// applySyncFlags copies explicitly set flags over the loaded configuration.
func (a *App) applySyncFlags(cmd *cobra.Command, flags *syncFlags) {
	changed := cmd.Flags().Changed
	if changed("store") {
		a.config.StoreDriver = flags.store
	}
	if changed("store-path") {
		a.config.StorePath = flags.storePath
	}
	if changed("database-url") {
		a.config.DatabaseURL = flags.databaseURL
	}
	if changed("concurrency") {
		a.config.Concurrency = flags.concurrency
	}
	if changed("pacing-delay") {
		a.config.PacingDelay = flags.pacingDelay
	}
	if changed("timeout") {
		a.config.Timeout = flags.timeout
	}
}

func (a *App) runSync(cmd *cobra.Command, flags *syncFlags, kind catalog.Kind, handle string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	a.applySyncFlags(cmd, flags)
	if err := a.config.Validate(); err != nil {
		return err
	}
	format, err := output.ParseFormat(a.flags.Format)
	if err != nil {
		return err
	}
	if format == "" {
		format = output.DetectFormat("")
	}

	source, err := a.Source()
	if err != nil {
		return err
	}
	store, err := a.Store(ctx)
	if err != nil {
		return err
	}

	client, err := shelfsync.New(source, store,
		shelfsync.WithConcurrency(a.config.Concurrency),
		shelfsync.WithPacingDelay(a.config.PacingDelay),
		shelfsync.WithTimeout(a.config.Timeout),
		shelfsync.WithDryRun(flags.dryRun),
		shelfsync.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	var changes []output.Change
	client.OnDocumentCreated(func(doc *documents.Document) {
		changes = append(changes, output.NewChange("create", doc))
	})
	client.OnDocumentUpdated(func(doc *documents.Document) {
		changes = append(changes, output.NewChange("patch", doc))
	})

	var summary shelfsync.Summary
	cb := shelfsync.CallbackFuncs{
		FetchedItems: func(entities []catalog.Entity) {
			logger.Debug().Int("count", len(entities)).Msg("Fetched page")
		},
		Progress: func(e catalog.Entity, res reconciler.Result) {
			logger.Debug().
				Str("handle", e.Handle).
				Stringer("outcome", res.Outcome).
				Msg("Reconciled")
		},
		Complete: func(s shelfsync.Summary) {
			summary = s
		},
	}

	if handle == "" {
		err = client.Sync(ctx, kind, cb)
	} else {
		err = client.SyncHandle(ctx, kind, handle, cb)
	}
	if err != nil {
		return err
	}

	report := output.Report{Summary: summary}
	if summary.DryRun {
		report.Changes = changes
	}

	w := cmd.OutOrStdout()
	if err := output.NewFormatter(format).Format(w, report); err != nil {
		return err
	}
	if format == output.FormatTable && len(report.Changes) > 0 {
		fmt.Fprintln(w)
		return output.NewFormatter(format).Format(w, report.ChangesTable())
	}
	return nil
}
