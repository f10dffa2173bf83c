package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/feral-file/mrkt-indexer/internal/app"
	"github.com/feral-file/mrkt-indexer/internal/importer"
	"github.com/feral-file/mrkt-indexer/internal/scanner"
	"github.com/feral-file/mrkt-indexer/internal/store"
)

var (
	failuresLimit int
	failuresCw721 bool

	importPageSize int
	importWorkers  int
)

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Inspect or move the block scanner checkpoint",
}

var checkpointGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the next height the scanner will read",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *app.Core) error {
			height, ok, err := core.Cursor.GetCheckpoint(cmd.Context(), scanner.CheckpointKey)
			if err != nil {
				return err
			}
			if !ok {
				cmd.Println("checkpoint not initialized")
				return nil
			}
			cmd.Println(height)
			return nil
		})
	},
}

var checkpointSetCmd = &cobra.Command{
	Use:   "set <height>",
	Short: "Overwrite the checkpoint, rewinding the scanner when lower",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := parseHeight(args[0])
		if err != nil {
			return err
		}
		return withCore(cmd.Context(), func(core *app.Core) error {
			if err := core.Cursor.SetCheckpoint(cmd.Context(), scanner.CheckpointKey, height); err != nil {
				return err
			}
			cmd.Printf("checkpoint set to %d\n", height)
			return nil
		})
	},
}

var rescanCmd = &cobra.Command{
	Use:   "rescan <height>",
	Short: "Re-apply the events of one height without moving the checkpoint",
	Long: `rescan fetches the transactions of a height and submits every tracked event.
Events that were already applied are skipped by the ledger, so a rescan is safe
to repeat.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		height, err := parseHeight(args[0])
		if err != nil {
			return err
		}
		return withCore(cmd.Context(), func(core *app.Core) error {
			s := scanner.New(
				scanner.Config{
					StartHeight:        ctlConfig.Scanner.StartHeight,
					SafetyLag:          ctlConfig.Scanner.SafetyLag,
					BatchSize:          1,
					PrefetchWorkers:    1,
					IncludeMarketplace: ctlConfig.Scanner.IncludeMarketplace,
				},
				core.Chain,
				core.Blocks,
				core.Cursor,
				core.Classifier,
				core.Consumer,
				core.Clock,
			)
			defer s.Close()

			if err := s.Rescan(cmd.Context(), height); err != nil {
				return err
			}
			cmd.Printf("height %d rescanned\n", height)
			return nil
		})
	},
}

var failuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "List the most recent permanently failed events",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *app.Core) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()

			if failuresCw721 {
				rows, err := core.Store.ListCwr721Failures(cmd.Context(), failuresLimit)
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "CREATED\tHEIGHT\tTX\tACTION\tMESSAGE")
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
						r.CreatedAt.Format(time.RFC3339), r.Height, r.TxHash, r.Action, r.Message)
				}
				return nil
			}

			rows, err := core.Store.ListStreamTxFailures(cmd.Context(), failuresLimit)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "CREATED\tSOURCE\tHEIGHT\tTX\tACTION\tMESSAGE")
			for _, r := range rows {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.RFC3339), r.Source, r.Height, r.TxHash, r.Action, r.Message)
			}
			return nil
		})
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *app.Core) error {
			if err := store.Migrate(cmd.Context(), core.DB); err != nil {
				return err
			}
			cmd.Println("database migrated")
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats <collection>",
	Short: "Print the supply, floor and volume rollup of a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *app.Core) error {
			stats, err := core.Store.GetCollectionStats(cmd.Context(), args[0], core.Clock.Now())
			if err != nil {
				return err
			}

			floor := "-"
			if stats.FloorPrice.Valid {
				floor = stats.FloorPrice.Decimal.String()
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintf(w, "address\t%s\n", stats.Address)
			fmt.Fprintf(w, "supply\t%d\n", stats.Supply)
			fmt.Fprintf(w, "owners\t%d\n", stats.Owners)
			fmt.Fprintf(w, "listed\t%d\n", stats.Listed)
			fmt.Fprintf(w, "floor\t%s\n", floor)
			fmt.Fprintf(w, "sales\t%d\n", stats.Sales)
			fmt.Fprintf(w, "volume\t%s\n", stats.Volume.String())
			fmt.Fprintf(w, "volume_1h\t%s\n", stats.Volume1h.String())
			fmt.Fprintf(w, "volume_24h\t%s\n", stats.Volume24h.String())
			fmt.Fprintf(w, "volume_7d\t%s\n", stats.Volume7d.String())
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <collection>",
	Short: "Backfill every token of a collection from the chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd.Context(), func(core *app.Core) error {
			imp := importer.New(importer.Config{
				PageSize: importPageSize,
				Workers:  importWorkers,
			}, core.Chain, core.Materializer)

			summary, err := imp.Import(cmd.Context(), args[0], func(done, expected uint64) {
				cmd.Printf("\rimported %d/%d", done, expected)
			})
			if err != nil {
				return err
			}
			cmd.Printf("\n%s: %d imported, %d failed, %d expected\n",
				summary.Address, summary.Imported, summary.Failed, summary.Expected)
			return nil
		})
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointGetCmd, checkpointSetCmd)

	failuresCmd.Flags().IntVarP(&failuresLimit, "limit", "l", 20, "number of rows to show")
	failuresCmd.Flags().BoolVar(&failuresCw721, "cw721", false, "list cw721 failures instead of marketplace failures")

	importCmd.Flags().IntVar(&importPageSize, "page-size", importer.DEFAULT_PAGE_SIZE, "all_tokens page size")
	importCmd.Flags().IntVarP(&importWorkers, "workers", "w", importer.DEFAULT_WORKERS, "concurrent token imports")
}

func parseHeight(s string) (uint64, error) {
	height, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid height %q: %w", s, err)
	}
	return height, nil
}
