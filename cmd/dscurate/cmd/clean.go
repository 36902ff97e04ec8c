package cmd

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/cleanup"
	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/quarantine"
)

func newCleanCommand(a *app) *cobra.Command {
	var (
		only, from  string
		dryRun      bool
		metricsFile string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the cleanup stages A-D",
		Long: `Run the staged cleanup over the dataset:

  A  exact duplicates (content digest)
  B  near duplicates across splits (perceptual hash)
  C  quality (size, blur, exposure)
  D  label validation

Rejected pairs move to the quarantine folder and every decision is logged.
Without --only or --from all four stages run in order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := cleanup.Plan(only, from)
			if err != nil {
				return err
			}
			opts, err := a.cfg.ToCleanupOptions()
			if err != nil {
				return err
			}
			opts.DryRun = dryRun
			if !a.cfg.Quiet {
				opts.Progress = dataset.NewConsoleProgressCallback(cmd.ErrOrStderr(), "scan ")
			}
			if metricsFile != "" {
				opts.Metrics = cleanup.NewMetrics()
			}

			rep, err := cleanup.NewRunner(opts).Run(cmd.Context(), plan)
			if rep != nil {
				if perr := printCleanReport(cmd.OutOrStdout(), opts.Layout.Splits, rep); perr != nil {
					return perr
				}
			}
			if err != nil {
				return err
			}
			if opts.Metrics != nil {
				if err := opts.Metrics.WriteTextfile(metricsFile); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&only, "only", "", "run a single stage (A, B, C or D)")
	cmd.Flags().StringVar(&from, "from", "", "run from this stage to D")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log decisions without moving files")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics here")
	return cmd
}

func printCleanReport(w io.Writer, splits []dataset.Split, rep *cleanup.Report) error {
	if rep.DryRun {
		_, _ = fmt.Fprintln(w, "DRY RUN: no files were moved")
	}
	for _, s := range rep.Splits {
		if s.Status == dataset.SplitSkipped {
			_, _ = fmt.Fprintf(w, "split %s skipped (folder missing)\n", s.Split)
		}
	}

	header := []string{"stage", "description", "moves"}
	for _, s := range splits {
		header = append(header, string(s))
	}
	rows := [][]string{countRow("initial", "", "", splits, rep.Initial)}
	for _, st := range rep.Stages {
		rows = append(rows, countRow(string(st.Stage), st.Stage.Description(), strconv.Itoa(st.Moves), splits, st.Counts))
	}
	if err := audit.RenderTable(w, header, rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\nTotal moves: %d\n", rep.TotalMoves()); err != nil {
		return err
	}
	if len(rep.Categories) > 0 {
		cats := make([]string, 0, len(rep.Categories))
		for c := range rep.Categories {
			cats = append(cats, string(c))
		}
		slices.Sort(cats)
		parts := make([]string, len(cats))
		for i, c := range cats {
			parts[i] = fmt.Sprintf("%s=%d", c, rep.Categories[quarantine.Category(c)])
		}
		_, _ = fmt.Fprintf(w, "By category: %s\n", strings.Join(parts, " "))
	}
	_, err := fmt.Fprintf(w, "Move log: %s (%d rows)\nQuarantine: %s\n",
		rep.LogPath, rep.LogRows, rep.QuarantineDir)
	return err
}

func countRow(stage, desc, moves string, splits []dataset.Split, counts map[dataset.Split]int) []string {
	row := []string{stage, desc, moves}
	for _, s := range splits {
		row = append(row, strconv.Itoa(counts[s]))
	}
	return row
}
