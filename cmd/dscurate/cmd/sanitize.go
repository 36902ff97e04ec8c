package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
	"github.com/MeKo-Tech/dscurate/internal/labels"
)

func newSanitizeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sanitize [label-dir...]",
		Short: "Rewrite label files into canonical detection form",
		Long: `Rewrite every label file so each line is "<class> <cx> <cy> <w> <h>".
Segmentation polygons are reduced to their clamped bounding box. Lines that
cannot be parsed, fall outside [0,1] or are below the minimum box area are
dropped. Without arguments the labels folder of every split is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				l, err := a.cfg.Layout()
				if err != nil {
					return err
				}
				for _, s := range l.Splits {
					dirs = append(dirs, l.LabelsDir(s))
				}
			}

			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				st, err := labels.SanitizeDir(dir, a.cfg.Labels.MinBoxArea)
				if err != nil {
					return fmt.Errorf("sanitize %s: %w", dir, err)
				}
				if st.Skipped {
					rows = append(rows, []string{dir, "missing", "", "", ""})
					continue
				}
				rows = append(rows, []string{
					dir, strconv.Itoa(st.Files), strconv.Itoa(st.Changed),
					strconv.Itoa(st.Fixed), strconv.Itoa(st.Dropped),
				})
			}
			return audit.RenderTable(cmd.OutOrStdout(),
				[]string{"dir", "files", "rewritten", "fixed", "dropped_lines"}, rows)
		},
	}
}
