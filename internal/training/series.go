package training

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"
)

// Default locations under the dataset root.
const (
	SubsetsDir  = "subsets_series"
	AuditDir    = "audit_out"
	PlotsDir    = "plots"
	SummaryFile = "learning_curve_incremental.csv"
)

// SummaryHeader names the columns of the incremental learning curve file.
var SummaryHeader = []string{
	"timestamp", "exp", "N_train", "best_epoch", "mAP50", "mAP50_95",
	"precision", "recall", "results_csv", "plot_map", "plot_pr",
}

// Executor runs one external command.
type Executor func(ctx context.Context, name string, args ...string) error

// ExecCommand runs the command inside dir with output forwarded to the
// given writers.
func ExecCommand(dir string, stdout, stderr io.Writer) Executor {
	return func(ctx context.Context, name string, args ...string) error {
		cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec // G204: trainer binary comes from configuration
		cmd.Dir = dir
		cmd.Stdout = stdout
		cmd.Stderr = stderr
		return cmd.Run()
	}
}

// SeriesOptions configures a training series.
type SeriesOptions struct {
	// Root is the dataset root; the trainer runs there.
	Root string
	// SubsetsDir defaults to <root>/subsets_series.
	SubsetsDir string
	Sizes      []int
	Binary     string
	Model      string
	ImgSize    int
	Epochs     int
	Batch      int
	Device     string
	Project    string
	NamePrefix string
	// PlotsDir defaults to <root>/audit_out/plots.
	PlotsDir string
	// SummaryPath defaults to <root>/audit_out/learning_curve_incremental.csv.
	SummaryPath string

	Exec Executor
	Now  func() time.Time
}

// DefaultSeriesOptions returns the stock CPU training settings.
func DefaultSeriesOptions(root string) SeriesOptions {
	return SeriesOptions{
		Root:       root,
		Sizes:      []int{500, 1000, 1500, 2000, 2514},
		Binary:     "yolo",
		Model:      "yolov8n.pt",
		ImgSize:    640,
		Epochs:     50,
		Batch:      8,
		Device:     "cpu",
		Project:    "runs",
		NamePrefix: "placas_v8n_N",
	}
}

// SummaryRow is one line of the incremental summary.
type SummaryRow struct {
	Timestamp  time.Time
	Exp        string
	N          int
	BestEpoch  int
	MAP50      float64
	MAP5095    float64
	Precision  float64
	Recall     float64
	ResultsCSV string
	PlotMAP    string
	PlotPR     string
}

func (r SummaryRow) record() []string {
	return []string{
		r.Timestamp.Format("2006-01-02T15:04:05"),
		r.Exp,
		strconv.Itoa(r.N),
		strconv.Itoa(r.BestEpoch),
		formatFloat(r.MAP50),
		formatFloat(r.MAP5095),
		formatFloat(r.Precision),
		formatFloat(r.Recall),
		r.ResultsCSV,
		r.PlotMAP,
		r.PlotPR,
	}
}

// ExperimentName returns <prefix><N zero-padded to four digits>.
func ExperimentName(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// DataYAMLPath returns the data file written by the subset builder for n.
func DataYAMLPath(subsetsDir string, n int) string {
	return filepath.Join(subsetsDir, fmt.Sprintf("train_%d", n), fmt.Sprintf("data_%d.yaml", n))
}

// TrainArgs builds the trainer command line for one subset.
func (o SeriesOptions) TrainArgs(dataYAML, exp string) []string {
	return []string{
		"detect", "train",
		"data=" + dataYAML,
		"model=" + o.Model,
		"imgsz=" + strconv.Itoa(o.ImgSize),
		"epochs=" + strconv.Itoa(o.Epochs),
		"batch=" + strconv.Itoa(o.Batch),
		"device=" + o.Device,
		"project=" + o.Project,
		"name=" + exp,
	}
}

// RunSeries trains one model per subset size. A size without a data file
// is skipped and a failing trainer run is logged; neither stops the series.
func RunSeries(ctx context.Context, o SeriesOptions) ([]SummaryRow, error) {
	if o.SubsetsDir == "" {
		o.SubsetsDir = filepath.Join(o.Root, SubsetsDir)
	}
	if o.PlotsDir == "" {
		o.PlotsDir = filepath.Join(o.Root, AuditDir, PlotsDir)
	}
	if o.SummaryPath == "" {
		o.SummaryPath = filepath.Join(o.Root, AuditDir, SummaryFile)
	}
	if o.Exec == nil {
		o.Exec = ExecCommand(o.Root, os.Stdout, os.Stderr)
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if err := os.MkdirAll(o.PlotsDir, 0o750); err != nil {
		return nil, fmt.Errorf("create plots folder: %w", err)
	}

	var rows []SummaryRow
	for _, n := range o.Sizes {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		data := DataYAMLPath(o.SubsetsDir, n)
		if _, err := os.Stat(data); err != nil {
			slog.Warn("Subset data file missing, skipping size", "n", n, "path", data)
			continue
		}
		if abs, err := filepath.Abs(data); err == nil {
			data = abs
		}

		exp := ExperimentName(o.NamePrefix, n)
		args := o.TrainArgs(data, exp)
		slog.Info("Starting training run", "n", n, "exp", exp, "cmd", o.Binary, "args", args)
		if err := o.Exec(ctx, o.Binary, args...); err != nil {
			if ctx.Err() != nil {
				return rows, ctx.Err()
			}
			slog.Warn("Training run failed, continuing with next size", "exp", exp, "error", err)
		}

		results := FindResults(filepath.Join(o.Root, o.Project), exp)
		row, err := Summarize(results, exp, n, o.PlotsDir)
		if err != nil {
			slog.Warn("No usable results for run", "exp", exp, "path", results, "error", err)
			continue
		}
		row.Timestamp = o.Now()
		if err := AppendSummary(o.SummaryPath, row); err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// FindResults returns <project>/detect/<exp>/results.csv, or the first
// <exp>/results.csv found anywhere under project.
func FindResults(project, exp string) string {
	std := filepath.Join(project, "detect", exp, "results.csv")
	if _, err := os.Stat(std); err == nil {
		return std
	}
	found := ""
	_ = filepath.WalkDir(project, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == "results.csv" && filepath.Base(filepath.Dir(path)) == exp {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if found == "" {
		return std
	}
	return found
}

// Summarize reads a results file, draws its curves into plotsDir and
// returns the best epoch's metrics.
func Summarize(resultsPath, exp string, n int, plotsDir string) (SummaryRow, error) {
	res, err := ReadResults(resultsPath)
	if err != nil {
		return SummaryRow{}, err
	}

	epochs := res.Epochs()
	title := fmt.Sprintf("%s (N=%d)", exp, n)

	var mapCurves []Curve
	if s, ok := res.Series(ColMAP50); ok {
		mapCurves = append(mapCurves, Curve{Name: "mAP@0.5", Values: s})
	}
	if s, ok := res.Series(ColMAP5095); ok {
		mapCurves = append(mapCurves, Curve{Name: "mAP@0.5:0.95", Values: s})
	}
	plotMAP := filepath.Join(plotsDir, exp+"_map.png")
	if err := (Plot{Title: title, XLabel: "epoch", YLabel: "mAP", X: epochs, Curves: mapCurves}).SavePNG(plotMAP); err != nil {
		return SummaryRow{}, fmt.Errorf("plot mAP: %w", err)
	}

	var prCurves []Curve
	if s, ok := res.Series(ColPrecision); ok {
		prCurves = append(prCurves, Curve{Name: "Precision", Values: s})
	}
	if s, ok := res.Series(ColRecall); ok {
		prCurves = append(prCurves, Curve{Name: "Recall", Values: s})
	}
	plotPR := ""
	if len(prCurves) > 0 {
		plotPR = filepath.Join(plotsDir, exp+"_pr.png")
		if err := (Plot{Title: title, XLabel: "epoch", YLabel: "score", X: epochs, Curves: prCurves}).SavePNG(plotPR); err != nil {
			return SummaryRow{}, fmt.Errorf("plot precision/recall: %w", err)
		}
	}

	best := res.BestRow()
	return SummaryRow{
		Exp:        exp,
		N:          n,
		BestEpoch:  res.EpochOf(best),
		MAP50:      res.Value(best, ColMAP50),
		MAP5095:    res.Value(best, ColMAP5095),
		Precision:  res.Value(best, ColPrecision),
		Recall:     res.Value(best, ColRecall),
		ResultsCSV: resultsPath,
		PlotMAP:    plotMAP,
		PlotPR:     plotPR,
	}, nil
}

// AppendSummary adds row to the summary file, writing the header when the
// file is new.
func AppendSummary(path string, row SummaryRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: summary path from options
	if err != nil {
		return fmt.Errorf("open summary: %w", err)
	}
	w := csv.NewWriter(f)
	if isNew {
		_ = w.Write(SummaryHeader)
	}
	_ = w.Write(row.record())
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write summary: %w", err)
	}
	return f.Close()
}
