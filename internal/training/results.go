// Package training drives incremental training runs over the subset series
// and collects their metrics into learning curves.
package training

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Column aliases; the metric names differ between trainer versions.
var (
	ColMAP50     = []string{"metrics/mAP50(B)", "val/box/mAP50", "map50"}
	ColMAP5095   = []string{"metrics/mAP50-95(B)", "val/box/mAP50-95", "map"}
	ColPrecision = []string{"metrics/precision(B)", "precision"}
	ColRecall    = []string{"metrics/recall(B)", "recall"}
	ColEpochTime = []string{"time/epoch", "time"}
)

// ErrEmptyResults is returned for a results file without data rows.
var ErrEmptyResults = errors.New("results file has no rows")

// Results is a parsed per-epoch results table. Cells that are not numbers
// hold NaN.
type Results struct {
	Path    string
	Columns []string
	Rows    [][]float64
}

// ReadResults parses a results.csv. Header names are trimmed because the
// trainer pads them with spaces.
func ReadResults(path string) (*Results, error) {
	f, err := os.Open(path) //nolint:gosec // G304: results file found under the runs folder
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResults, path)
	}

	res := &Results{Path: path}
	for _, h := range records[0] {
		res.Columns = append(res.Columns, strings.TrimSpace(h))
	}
	for _, rec := range records[1:] {
		row := make([]float64, len(res.Columns))
		for i := range row {
			row[i] = math.NaN()
			if i < len(rec) {
				if v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64); err == nil {
					row[i] = v
				}
			}
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

// Pick returns the index of the first candidate column present.
func (r *Results) Pick(candidates []string) (int, bool) {
	for _, c := range candidates {
		for i, col := range r.Columns {
			if col == c {
				return i, true
			}
		}
	}
	return -1, false
}

// Series returns the values of the first matching candidate column.
func (r *Results) Series(candidates []string) ([]float64, bool) {
	i, ok := r.Pick(candidates)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(r.Rows))
	for j, row := range r.Rows {
		out[j] = row[i]
	}
	return out, true
}

// Epochs returns the epoch column, or the row index when it is missing.
func (r *Results) Epochs() []float64 {
	if s, ok := r.Series([]string{"epoch"}); ok {
		return s
	}
	out := make([]float64, len(r.Rows))
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// BestRow returns the row with the highest mAP50, or the last row when no
// mAP50 value is available.
func (r *Results) BestRow() int {
	best := len(r.Rows) - 1
	s, ok := r.Series(ColMAP50)
	if !ok {
		return best
	}
	bestVal := math.Inf(-1)
	found := false
	for i, v := range s {
		if math.IsNaN(v) {
			continue
		}
		if !found || v > bestVal {
			best, bestVal, found = i, v, true
		}
	}
	return best
}

// Value returns the cell of row for the first matching candidate, or NaN.
func (r *Results) Value(row int, candidates []string) float64 {
	i, ok := r.Pick(candidates)
	if !ok || row < 0 || row >= len(r.Rows) {
		return math.NaN()
	}
	return r.Rows[row][i]
}

// EpochOf returns the epoch number recorded in row, or the row index.
func (r *Results) EpochOf(row int) int {
	v := r.Value(row, []string{"epoch"})
	if math.IsNaN(v) {
		return row
	}
	return int(v)
}

// Sum adds all non-NaN values of the first matching candidate column.
func (r *Results) Sum(candidates []string) (float64, bool) {
	s, ok := r.Series(candidates)
	if !ok {
		return 0, false
	}
	total := 0.0
	for _, v := range s {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total, true
}

// formatFloat renders v for CSV output; NaN becomes an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
