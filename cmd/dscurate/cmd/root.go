package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/dscurate/internal/config"
	"github.com/MeKo-Tech/dscurate/internal/version"
)

// app carries the configuration shared by one command tree.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds the dscurate command tree with its own viper
// instance, so tests can execute independent trees.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "dscurate",
		Short: "Dataset deduplication and quality triage for YOLO detection datasets",
		Long: `dscurate audits and cleans a YOLO detection dataset laid out as
{train,valid,test}/{images,labels}. Rejected image/label pairs are moved to
_quarantine/<category> and every decision is written to a move log.

It also builds learning-curve subsets, drives the external trainer over
them, aggregates the results and benchmarks exported models.

Examples:
  dscurate audit baseline --root ./dataset
  dscurate clean --root ./dataset --dry-run
  dscurate clean --only B
  dscurate subsets --targets 500,1000
  dscurate bench onnx --model best.onnx`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.PersistentFlags().GetBool("version"); v {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "dscurate version %s\n", version.String())
				return err
			}
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/dscurate, /etc/dscurate)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("root", ".", "dataset root holding train/valid/test")
	pf.BoolP("quiet", "q", false, "suppress progress bars")
	pf.Bool("version", false, "print version information and exit")

	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("dataset.root", pf.Lookup("root"))
	_ = a.v.BindPFlag("quiet", pf.Lookup("quiet"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewLoaderWith(a.v).LoadWithFile(a.cfgFile)
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		a.cfg = cfg
		setupLogging(cmd, cfg)
		return nil
	}

	rootCmd.AddCommand(
		newCleanCommand(a),
		newAuditCommand(a),
		newPurgeCommand(a),
		newSanitizeCommand(a),
		newSubsetsCommand(a),
		newTrainCommand(a),
		newAggregateCommand(a),
		newBenchCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// setupLogging installs a JSON slog handler on stderr; stdout is reserved
// for tables and summaries.
func setupLogging(cmd *cobra.Command, cfg *config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// ExecuteContext runs the command tree until ctx is cancelled.
func ExecuteContext(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
