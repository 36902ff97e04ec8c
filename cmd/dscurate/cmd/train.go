package cmd

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/training"
)

func newTrainCommand(a *app) *cobra.Command {
	var (
		sizes  []int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one model per subset and append the learning-curve summary",
		Long: `Invoke the external trainer (default "yolo detect train") once per subset
size, then read each run's results.csv, plot mAP and precision/recall per
epoch and append the best epoch to the incremental summary. A failed run is
logged and the series continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := a.cfg.ToSeriesOptions()
			if cmd.Flags().Changed("sizes") {
				opts.Sizes = sizes
			}
			if _, err := exec.LookPath(opts.Binary); err != nil && !dryRun {
				return fmt.Errorf("trainer %q not found on PATH: %w", opts.Binary, err)
			}
			if dryRun {
				out := cmd.OutOrStdout()
				opts.Exec = func(_ context.Context, name string, args ...string) error {
					_, err := fmt.Fprintln(out, name+" "+strings.Join(args, " "))
					return err
				}
			} else {
				opts.Exec = training.ExecCommand(opts.Root, cmd.OutOrStdout(), cmd.ErrOrStderr())
			}

			rows, err := training.RunSeries(cmd.Context(), opts)
			if err != nil {
				return err
			}
			table := make([][]string, 0, len(rows))
			for _, r := range rows {
				table = append(table, []string{
					r.Exp, strconv.Itoa(r.N), strconv.Itoa(r.BestEpoch),
					fmt.Sprintf("%.4f", r.MAP50), fmt.Sprintf("%.4f", r.MAP5095),
				})
			}
			return audit.RenderTable(cmd.OutOrStdout(),
				[]string{"exp", "N", "best_epoch", "mAP50", "mAP50_95"}, table)
		},
	}
	cmd.Flags().IntSliceVar(&sizes, "sizes", nil, "subset sizes to train (default: subsets.targets)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print trainer commands instead of running them")
	return cmd
}
