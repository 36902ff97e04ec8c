package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/labels"
)

func newAuditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Write dataset audit reports",
		Long:  "Count files, label issues and classes per split and write the reports to the audit folder.",
	}
	cmd.AddCommand(newAuditBaselineCommand(a), newAuditInvalidCommand(a), newAuditCountCommand(a))
	return cmd
}

func newAuditBaselineCommand(a *app) *cobra.Command {
	var dataYAML, source string

	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Per-split counts, issue and class histograms before cleaning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.cfg.Layout()
			if err != nil {
				return err
			}
			if dataYAML == "" {
				dataYAML = a.cfg.DataYAMLPath()
			}
			opts := audit.BaselineOptions{MinBoxArea: a.cfg.Labels.MinBoxArea, Source: source}
			d, err := labels.ReadDataYAML(dataYAML)
			switch {
			case err == nil:
				if d.NC != nil {
					opts.NC = *d.NC
				}
				opts.ClassNames = d.Names
			case errors.Is(err, os.ErrNotExist):
				slog.Warn("data.yaml not found, class range check disabled", "path", dataYAML)
			default:
				return err
			}

			b, err := audit.ComputeBaseline(l, opts)
			if err != nil {
				return err
			}
			dir := a.cfg.AuditDir()
			if err := b.Write(dir); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := printCounts(out, b.Splits, len(audit.CountHeader)); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\nReports written to %s\n", dir)
			return err
		},
	}
	cmd.Flags().StringVar(&dataYAML, "data-yaml", "", "data.yaml with nc and names (default <root>/data.yaml)")
	cmd.Flags().StringVar(&source, "source", "", "free text note about the dataset origin")
	return cmd
}

func newAuditInvalidCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "invalid",
		Short: "List every image whose label fails validation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.cfg.Layout()
			if err != nil {
				return err
			}
			rows, err := audit.FindInvalid(l, a.cfg.LabelRules())
			if err != nil {
				return err
			}
			path := filepath.Join(a.cfg.AuditDir(), audit.InvalidLabelsFile)
			if err := audit.WriteInvalid(path, rows); err != nil {
				return err
			}

			byReason := make(map[string]int)
			for _, r := range rows {
				byReason[r.Reason]++
			}
			reasons := make([]string, 0, len(byReason))
			for r := range byReason {
				reasons = append(reasons, r)
			}
			slices.Sort(reasons)
			table := make([][]string, 0, len(reasons))
			for _, r := range reasons {
				table = append(table, []string{r, strconv.Itoa(byReason[r])})
			}

			out := cmd.OutOrStdout()
			if err := audit.RenderTable(out, []string{"reason", "images"}, table); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\n%d invalid labels written to %s\n", len(rows), path)
			return err
		},
	}
}

func newAuditCountCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Per-split image and label counts after cleaning",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.cfg.Layout()
			if err != nil {
				return err
			}
			counts, err := audit.Count(l)
			if err != nil {
				return err
			}
			const cols = 5
			path := filepath.Join(a.cfg.AuditDir(), audit.PostCleanupFile)
			if err := audit.WriteCounts(path, counts, cols); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printCounts(out, counts, cols); err != nil {
				return err
			}
			_, err = fmt.Fprintf(out, "\nSummary written to %s\n", path)
			return err
		},
	}
}

func printCounts(w io.Writer, counts []audit.SplitCounts, cols int) error {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, c.Row(cols))
	}
	if err := audit.RenderTable(w, audit.CountHeader[:cols], rows); err != nil {
		return err
	}
	imgs, lbls := audit.Totals(counts)
	_, err := fmt.Fprintf(w, "\nTOTAL images: %d | TOTAL labels: %d\n", imgs, lbls)
	return err
}
