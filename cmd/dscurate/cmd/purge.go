package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/dscurate/internal/audit"
)

func newPurgeCommand(a *app) *cobra.Command {
	var (
		report string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Move the pairs listed in the invalid label report to the trash folder",
		Long: `Read the report written by "audit invalid" and move each listed image
and its label to <trash>/<split>/{images,labels}.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.cfg.Layout()
			if err != nil {
				return err
			}
			if report == "" {
				report = filepath.Join(a.cfg.AuditDir(), audit.InvalidLabelsFile)
			}
			trash := a.cfg.TrashDir()
			res, err := audit.Purge(l, report, trash, dryRun)
			if err != nil {
				return err
			}
			verb := "Moved"
			if dryRun {
				verb = "Would move"
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %d images and %d labels to %s\n",
				verb, res.Images, res.Labels, trash)
			return err
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "invalid label report (default <audit>/"+audit.InvalidLabelsFile+")")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would move without touching files")
	return cmd
}
