package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/training"
)

// Aggregator output names inside the audit folder.
const (
	curveCSV  = "learning_curve.csv"
	curveXLSX = "learning_curve.xlsx"
)

func newAggregateCommand(a *app) *cobra.Command {
	var runsDir string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Collect the best epoch of every training run into a learning curve",
		Long: `Scan every run folder for results.csv, take the best mAP50 epoch of
each and write learning_curve.csv plus a spreadsheet with an mAP50 vs N
line chart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runsDir == "" {
				runsDir = filepath.Join(a.cfg.Dataset.Root, a.cfg.Train.Project, "detect")
			}
			rows, err := training.Aggregate(runsDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				_, err := fmt.Fprintf(out, "No results.csv found under %s\n", runsDir)
				return err
			}

			dir := a.cfg.AuditDir()
			csvPath := filepath.Join(dir, curveCSV)
			if err := training.WriteCurveCSV(csvPath, rows); err != nil {
				return err
			}
			xlsxPath := filepath.Join(dir, curveXLSX)
			if err := training.WriteCurveXLSX(xlsxPath, rows); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "Aggregated %d runs\n  %s\n  %s\n", len(rows), csvPath, xlsxPath)
			return err
		},
	}
	cmd.Flags().StringVar(&runsDir, "runs", "", "folder holding one subfolder per run (default <root>/<project>/detect)")
	return cmd
}
