package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push every participation to the content store once",
		Long: `Embed every participation and create or update its collection item
in the content store, using SYNC_POLICY. Bounded by SYNC_TIMEOUT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), rootOpts)
		},
	}
}

func runSync(parent context.Context, opts *RootOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	logger := opts.Logger

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	if cfg.SyncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.SyncTimeout)
		defer cancel()
	}

	res, err := a.Run(ctx)
	if err != nil {
		return err
	}
	if res.Failed > 0 {
		logger.Warn("some collection items were not synced", "failed", res.Failed)
	}
	return nil
}
