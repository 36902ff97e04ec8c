// Package subsets builds cumulative, quality-ranked training subsets of
// increasing size from the train split, for learning curve experiments.
package subsets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/dedup"
	"github.com/MeKo-Tech/dscurate/internal/labels"
	"github.com/MeKo-Tech/dscurate/internal/quality"
)

// Default locations under the dataset root.
const (
	DirName    = "subsets_series"
	ReportFile = "subsets_series_report.csv"
)

// ReportHeader names the columns of the subset report.
var ReportHeader = []string{"N", "seleccionados"}

// Options configures a subset build.
type Options struct {
	Layout dataset.Layout
	// OutDir defaults to <root>/subsets_series.
	OutDir string
	// ReportPath defaults to <root>/audit_out/subsets_series_report.csv.
	ReportPath string
	Targets    []int

	MinWidth        int
	MinHeight       int
	MinBlurVariance float64
	MinBoxArea      float64
	HammingMax      int
	PrefixLen       int
	ClassNames      []string
	// DropNearDuplicates collapses perceptual clusters to their best member
	// before ranking. When false the pool is every candidate, ranked.
	DropNearDuplicates bool

	Workers  int
	Progress dataset.ProgressCallback
}

// DefaultOptions returns the stock settings for the dataset at root.
func DefaultOptions(root string) Options {
	return Options{
		Layout:          dataset.NewLayout(root),
		Targets:         []int{500, 1000, 1500, 2000, 2514},
		MinWidth:        320,
		MinHeight:       240,
		MinBlurVariance: 20,
		MinBoxArea:      labels.DefaultMinBoxArea,
		HammingMax:      3,
		PrefixLen:       4,
		ClassNames:      []string{"license-plate"},
	}
}

// Subset describes one written subset.
type Subset struct {
	N        int
	Dir      string
	ListFile string
	DataYAML string
}

// Result summarizes a build.
type Result struct {
	Candidates int
	Pool       int
	Subsets    []Subset
	ReportPath string
}

// Build filters train images, optionally collapses perceptual duplicates
// and copies the top N of the quality ranking for every target. Every subset is a
// prefix of the same ranking, so larger subsets contain the smaller ones.
func Build(ctx context.Context, opts Options) (*Result, error) {
	root := opts.Layout.Root
	if opts.OutDir == "" {
		opts.OutDir = filepath.Join(root, DirName)
	}
	if opts.ReportPath == "" {
		opts.ReportPath = filepath.Join(root, "audit_out", ReportFile)
	}

	trainOnly := opts.Layout
	trainOnly.Splits = []dataset.Split{dataset.Train}
	snap, err := dataset.Scan(ctx, trainOnly, dataset.ScanOptions{
		Workers:      opts.Workers,
		Fingerprints: true,
		Progress:     opts.Progress,
	})
	if err != nil {
		return nil, err
	}

	cands := Candidates(snap.BySplit(dataset.Train), opts)
	pool := dedup.Rank(cands)
	if opts.DropNearDuplicates {
		pool = dedup.Representatives(cands, opts.HammingMax, opts.PrefixLen)
	}
	slog.Info("Subset pool ready",
		"scanned", len(snap.Records),
		"candidates", len(cands),
		"pool", len(pool),
		"drop_near_duplicates", opts.DropNearDuplicates)

	res := &Result{Candidates: len(cands), Pool: len(pool), ReportPath: opts.ReportPath}
	report := [][]string{ReportHeader}
	for _, target := range opts.Targets {
		n := min(target, len(pool))
		sub, err := writeSubset(opts, pool[:n])
		if err != nil {
			return nil, err
		}
		res.Subsets = append(res.Subsets, sub)
		report = append(report, []string{strconv.Itoa(n), strconv.Itoa(n)})
		slog.Info("Subset written", "n", n, "dir", sub.Dir)
	}

	if err := writeCSV(opts.ReportPath, report); err != nil {
		return nil, err
	}
	return res, nil
}

// Candidates keeps records with a valid label that decode, meet the size
// minimum and are sharp enough.
func Candidates(records []*dataset.ImageRecord, opts Options) []*dataset.ImageRecord {
	th := quality.Thresholds{
		MinWidth:        opts.MinWidth,
		MinHeight:       opts.MinHeight,
		MinBlurVariance: opts.MinBlurVariance,
		MinBrightness:   0,
		MaxBrightness:   255,
	}
	rules := labels.Rules{MinBoxArea: opts.MinBoxArea}

	var out []*dataset.ImageRecord
	for _, r := range records {
		if r.Width == 0 || r.Height == 0 || !r.HasLabel() {
			continue
		}
		if !labels.Validate(r.LabelPath, rules).Valid {
			continue
		}
		v := th.Check(quality.Metrics{Width: r.Width, Height: r.Height, BlurScore: r.BlurScore, Brightness: r.Brightness})
		if v != quality.Pass {
			continue
		}
		out = append(out, r)
	}
	return out
}

func writeSubset(opts Options, members []*dataset.ImageRecord) (Subset, error) {
	n := len(members)
	dir := filepath.Join(opts.OutDir, fmt.Sprintf("train_%d", n))
	imgDir := filepath.Join(dir, "images")
	lblDir := filepath.Join(dir, "labels")
	for _, d := range []string{imgDir, lblDir} {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return Subset{}, fmt.Errorf("create subset folder: %w", err)
		}
	}

	absImg, err := filepath.Abs(imgDir)
	if err != nil {
		return Subset{}, err
	}
	var list strings.Builder
	for _, r := range members {
		name := filepath.Base(r.ImagePath)
		if err := copyFile(r.ImagePath, filepath.Join(imgDir, name)); err != nil {
			return Subset{}, err
		}
		if err := copyFile(r.LabelPath, filepath.Join(lblDir, filepath.Base(r.LabelPath))); err != nil {
			return Subset{}, err
		}
		list.WriteString(filepath.ToSlash(filepath.Join(absImg, name)) + "\n")
	}

	sub := Subset{
		N:        n,
		Dir:      dir,
		ListFile: filepath.Join(dir, fmt.Sprintf("train_%d.txt", n)),
		DataYAML: filepath.Join(dir, fmt.Sprintf("data_%d.yaml", n)),
	}
	if err := os.WriteFile(sub.ListFile, []byte(list.String()), 0o600); err != nil {
		return Subset{}, fmt.Errorf("write image list: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return Subset{}, err
	}
	nc := len(opts.ClassNames)
	err = labels.WriteDataYAML(sub.DataYAML, labels.DataYAML{
		Path:  filepath.ToSlash(absDir),
		Train: filepath.Base(sub.ListFile),
		Val:   "../../valid/images",
		Test:  "../../test/images",
		NC:    &nc,
		Names: opts.ClassNames,
	})
	if err != nil {
		return Subset{}, err
	}
	return sub, nil
}

// copyFile copies src to dst and keeps the modification time.
func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // G304: dataset file
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.Create(dst) //nolint:gosec // G304: subset output path
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copy %s: %w", src, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
