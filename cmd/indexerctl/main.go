package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/feral-file/mrkt-indexer/internal/app"
	"github.com/feral-file/mrkt-indexer/internal/config"
	"github.com/feral-file/mrkt-indexer/internal/logger"
)

var (
	// Flags
	configPath string
	envPath    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "indexerctl",
	Short: "Operate the marketplace indexer database",
	Long: `indexerctl inspects and repairs the state shared by the stream driver
and the block scanner: the scan checkpoint, the ledger of failed events,
collection rollups and token backfills.`,
	Example: `  # Show the next height the scanner will read
  indexerctl checkpoint get --config config.yaml

  # Re-apply a single height without moving the checkpoint
  indexerctl rescan 81234567

  # Backfill a collection minted before it was tracked
  indexerctl import sei1collection --page-size 50`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadIndexerCtlConfig(configPath, envPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := app.InitLogger(cfg.BaseConfig, "indexerctl"); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		ctlConfig = cfg
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Flush(2 * time.Second)
	},
}

var ctlConfig *config.IndexerCtlConfig

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "", "path to .env file")

	rootCmd.AddCommand(
		checkpointCmd,
		rescanCmd,
		failuresCmd,
		migrateCmd,
		statsCmd,
		importCmd,
	)
}

// withCore builds the shared components for the duration of a command
func withCore(ctx context.Context, fn func(core *app.Core) error) error {
	core, err := app.NewCore(ctx, app.Options{
		Base:     ctlConfig.BaseConfig,
		Database: ctlConfig.Database,
		Chain:    ctlConfig.Chain,
		Metadata: ctlConfig.Metadata,
		Registry: ctlConfig.Registry,
	})
	if err != nil {
		return err
	}
	defer core.Close()
	return fn(core)
}
