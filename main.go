package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"plantwatch/internal/config"
	"plantwatch/internal/logging"
)

var (
	configPath string
	verbose    bool
	logger     *zap.Logger
	cfg        config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "plantwatch",
		Short:         "Water treatment plant dashboard backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			logger, err = logging.New(cfg.Log.Level, cfg.Log.Development, verbose)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config (defaults to $PLANTWATCH_CONFIG)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newServeCmd(), newReadingsCmd(), newPrefsCmd())
	return root
}

// withStores opens the configured storage and builds the persisted stores
// for one-shot commands.
func withStores(ctx context.Context, fn func(*stores) error) error {
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}
