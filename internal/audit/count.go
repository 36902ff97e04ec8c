// Package audit produces the dataset reports used before and after a
// cleanup: per-split counts, label issue histograms, class histograms and
// the list of invalid labels.
package audit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
)

// Report file names written into the audit folder.
const (
	DirName             = "audit_out"
	BaselineCountsFile  = "baseline_antes_por_split.csv"
	BaselineIssuesFile  = "baseline_issues_por_split.csv"
	BaselineClassesFile = "baseline_clases_por_split.csv"
	BaselineSummaryFile = "baseline_resumen.txt"
	InvalidLabelsFile   = "baseline_labels_invalidos.csv"
	PostCleanupFile     = "resumen_postlimpieza.csv"
)

// CountHeader names the per-split count columns. The last two are only
// filled in by the baseline.
var CountHeader = []string{
	"split", "imagenes_total", "labels_total", "imgs_sin_label",
	"labels_sin_img", "labels_ok", "labels_invalidos",
}

// SplitCounts holds the file counts of one split.
type SplitCounts struct {
	Split              dataset.Split
	Images             int
	Labels             int
	ImagesWithoutLabel int
	LabelsWithoutImage int
	LabelsOK           int
	LabelsInvalid      int
}

// Row renders the first n columns of CountHeader.
func (c SplitCounts) Row(n int) []string {
	row := []string{
		string(c.Split),
		strconv.Itoa(c.Images),
		strconv.Itoa(c.Labels),
		strconv.Itoa(c.ImagesWithoutLabel),
		strconv.Itoa(c.LabelsWithoutImage),
		strconv.Itoa(c.LabelsOK),
		strconv.Itoa(c.LabelsInvalid),
	}
	return row[:n]
}

// pairing lists a split and matches image stems against label stems.
type pairing struct {
	counts SplitCounts
	images []string
}

func pairSplit(l dataset.Layout, s dataset.Split) (pairing, error) {
	imgs, _, err := l.ListImages(s)
	if err != nil {
		return pairing{}, err
	}
	lbls, _, err := l.ListLabels(s)
	if err != nil {
		return pairing{}, err
	}

	imgStems := make(map[string]bool, len(imgs))
	for _, p := range imgs {
		imgStems[dataset.Stem(p)] = true
	}
	lblStems := make(map[string]bool, len(lbls))
	for _, p := range lbls {
		lblStems[dataset.Stem(p)] = true
	}

	c := SplitCounts{Split: s, Images: len(imgs), Labels: len(lbls)}
	for st := range imgStems {
		if !lblStems[st] {
			c.ImagesWithoutLabel++
		}
	}
	for st := range lblStems {
		if !imgStems[st] {
			c.LabelsWithoutImage++
		}
	}
	return pairing{counts: c, images: imgs}, nil
}

// Count returns image and label counts for every split of l.
func Count(l dataset.Layout) ([]SplitCounts, error) {
	if err := l.CheckRoot(); err != nil {
		return nil, err
	}
	out := make([]SplitCounts, 0, len(l.Splits))
	for _, s := range l.Splits {
		p, err := pairSplit(l, s)
		if err != nil {
			return nil, err
		}
		out = append(out, p.counts)
	}
	return out, nil
}

// Totals sums images and labels over all splits.
func Totals(counts []SplitCounts) (images, labels int) {
	for _, c := range counts {
		images += c.Images
		labels += c.Labels
	}
	return images, labels
}

// WriteCounts writes the first n count columns as CSV.
func WriteCounts(path string, counts []SplitCounts, n int) error {
	rows := [][]string{CountHeader[:n]}
	for _, c := range counts {
		rows = append(rows, c.Row(n))
	}
	return writeCSV(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create report folder: %w", err)
	}
	f, err := os.Create(path) //nolint:gosec // G304: report path built from the dataset root
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
