package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/subsets"
)

func newSubsetsCommand(a *app) *cobra.Command {
	var targets []int

	cmd := &cobra.Command{
		Use:   "subsets",
		Short: "Build cumulative training subsets for a learning curve",
		Long: `Rank the train split by quality, collapse perceptual near-duplicates and
copy the top N pairs for every target size into subsets_series/train_N with
a matching data_N.yaml. Each subset contains every smaller one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := a.cfg.ToSubsetsOptions()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("targets") {
				opts.Targets = targets
			}
			if !a.cfg.Quiet {
				opts.Progress = dataset.NewConsoleProgressCallback(cmd.ErrOrStderr(), "scan ")
			}

			res, err := subsets.Build(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Candidates: %d  pool: %d\n\n", res.Candidates, res.Pool)
			rows := make([][]string, 0, len(res.Subsets))
			for _, s := range res.Subsets {
				rows = append(rows, []string{strconv.Itoa(s.N), s.Dir, s.DataYAML})
			}
			if err := audit.RenderTable(out, []string{"N", "dir", "data"}, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\nReport written to %s\n", res.ReportPath)
			return err
		},
	}
	cmd.Flags().IntSliceVar(&targets, "targets", nil, "subset sizes (default from config)")
	return cmd
}
