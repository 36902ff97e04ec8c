package training

import (
	"cmp"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// CurveSheet is the worksheet name of the learning curve workbook.
const CurveSheet = "learning_curve"

var (
	nameN = regexp.MustCompile(`_N(\d+)`)
	argsN = regexp.MustCompile(`train[_/](\d+)`)
)

// CurveRow is one experiment in the aggregated learning curve.
type CurveRow struct {
	Exp       string
	N         *int
	Epoch     int
	MAP50     float64
	MAP5095   float64
	Precision float64
	Recall    float64
	// TotalTime is the summed epoch time in seconds; nil when not recorded.
	TotalTime *float64
}

// ExtractN finds the training subset size of an experiment folder, first
// from an _N<digits> suffix of its name, then from a train_<digits>
// reference in args.yaml, opt.yaml or cfg.yaml.
func ExtractN(expDir string) (int, bool) {
	if m := nameN.FindStringSubmatch(filepath.Base(expDir)); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n, true
		}
	}
	for _, name := range []string{"args.yaml", "opt.yaml", "cfg.yaml"} {
		data, err := os.ReadFile(filepath.Join(expDir, name)) //nolint:gosec // G304: run folder file
		if err != nil {
			continue
		}
		if m := argsN.FindSubmatch(data); m != nil {
			if n, err := strconv.Atoi(string(m[1])); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

// Aggregate collects the best epoch of every run under runsDir that has a
// readable, non-empty results.csv. Rows are sorted by N then name; runs
// without N come last.
func Aggregate(runsDir string) ([]CurveRow, error) {
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("read runs folder: %w", err)
	}

	var rows []CurveRow
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(runsDir, e.Name())
		res, err := ReadResults(filepath.Join(dir, "results.csv"))
		if err != nil {
			continue
		}
		best := res.BestRow()
		row := CurveRow{
			Exp:       e.Name(),
			Epoch:     res.EpochOf(best),
			MAP50:     res.Value(best, ColMAP50),
			MAP5095:   res.Value(best, ColMAP5095),
			Precision: res.Value(best, ColPrecision),
			Recall:    res.Value(best, ColRecall),
		}
		if n, ok := ExtractN(dir); ok {
			row.N = &n
		}
		if total, ok := res.Sum(ColEpochTime); ok {
			row.TotalTime = &total
		}
		rows = append(rows, row)
	}

	slices.SortStableFunc(rows, func(a, b CurveRow) int {
		switch {
		case a.N == nil && b.N != nil:
			return 1
		case a.N != nil && b.N == nil:
			return -1
		case a.N != nil && b.N != nil && *a.N != *b.N:
			return cmp.Compare(*a.N, *b.N)
		}
		return cmp.Compare(a.Exp, b.Exp)
	})
	return rows, nil
}

// curveHeader returns the column names; the time column is present only
// when some run recorded epoch times.
func curveHeader(rows []CurveRow) []string {
	h := []string{"exp", "N_train", "epoch", "mAP50", "mAP50_95", "precision", "recall"}
	if hasTime(rows) {
		h = append(h, "time_total_epochs(s)")
	}
	return h
}

func hasTime(rows []CurveRow) bool {
	return slices.ContainsFunc(rows, func(r CurveRow) bool { return r.TotalTime != nil })
}

func (r CurveRow) cells(withTime bool) []any {
	var n any
	if r.N != nil {
		n = *r.N
	}
	out := []any{r.Exp, n, r.Epoch, nanToNil(r.MAP50), nanToNil(r.MAP5095), nanToNil(r.Precision), nanToNil(r.Recall)}
	if withTime {
		var t any
		if r.TotalTime != nil {
			t = *r.TotalTime
		}
		out = append(out, t)
	}
	return out
}

func nanToNil(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

// WriteCurveCSV writes rows as CSV; missing values are empty cells.
func WriteCurveCSV(path string, rows []CurveRow) error {
	withTime := hasTime(rows)
	out := [][]string{curveHeader(rows)}
	for _, r := range rows {
		var line []string
		for _, c := range r.cells(withTime) {
			switch v := c.(type) {
			case nil:
				line = append(line, "")
			case float64:
				line = append(line, formatFloat(v))
			case int:
				line = append(line, strconv.Itoa(v))
			default:
				line = append(line, fmt.Sprint(v))
			}
		}
		out = append(out, line)
	}
	return writeCSV(path, out)
}

// WriteCurveXLSX writes rows to a workbook and, when at least one run has
// both N and mAP50, adds a line chart of mAP50 against N anchored at H2.
func WriteCurveXLSX(path string, rows []CurveRow) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", CurveSheet); err != nil {
		return err
	}
	header := curveHeader(rows)
	hdr := make([]any, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	if err := f.SetSheetRow(CurveSheet, "A1", &hdr); err != nil {
		return err
	}
	withTime := hasTime(rows)
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		vals := r.cells(withTime)
		if err := f.SetSheetRow(CurveSheet, cell, &vals); err != nil {
			return err
		}
	}

	if chartable(rows) {
		last := len(rows) + 1
		err := f.AddChart(CurveSheet, "H2", &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$D$1", CurveSheet),
				Categories: fmt.Sprintf("%s!$B$2:$B$%d", CurveSheet, last),
				Values:     fmt.Sprintf("%s!$D$2:$D$%d", CurveSheet, last),
			}},
			Title: []excelize.RichTextRun{{Text: "mAP@0.5 vs N (train)"}},
			XAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "N (imágenes de train)"}}},
			YAxis: excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "mAP@0.5"}}},
		})
		if err != nil {
			return fmt.Errorf("add chart: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return f.SaveAs(path)
}

func chartable(rows []CurveRow) bool {
	hasN, hasMAP := false, false
	for _, r := range rows {
		hasN = hasN || r.N != nil
		hasMAP = hasMAP || !math.IsNaN(r.MAP50)
	}
	return hasN && hasMAP
}
