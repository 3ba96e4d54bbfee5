package cli

import (
	"log/slog"
	"os"

	"participations-app/config"

	"github.com/spf13/cobra"
)

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	Verbose bool
	Config  config.Config
	Logger  *slog.Logger
}

// NewRootCommand creates the root command for the participations service.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "participations",
		Short: "Participations API and collection sync",
		Long: `Serves participation records, raw or embedded with their lookup values,
observations and media, and pushes them to the content store as collection items.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadEnv()
			if err != nil {
				return err
			}
			opts.Config = cfg

			level := cfg.SlogLevel()
			if opts.Verbose {
				level = slog.LevelDebug
			}
			opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(opts.Logger)
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))

	return cmd
}
