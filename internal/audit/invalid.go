package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/labels"
)

// NoLabel marks an invalid entry whose label file does not exist.
const NoLabel = "N/A"

// InvalidHeader names the columns of the invalid label report.
var InvalidHeader = []string{"split", "imagen", "motivo", "label_file"}

// InvalidLabel is one row of the invalid label report. File names are
// relative to the split's images and labels folders.
type InvalidLabel struct {
	Split     dataset.Split
	Image     string
	Reason    string
	LabelFile string
}

// FindInvalid validates the label of every image, split by split in sorted
// image order, and returns the failures.
func FindInvalid(l dataset.Layout, rules labels.Rules) ([]InvalidLabel, error) {
	if err := l.CheckRoot(); err != nil {
		return nil, err
	}
	var out []InvalidLabel
	for _, s := range l.Splits {
		imgs, _, err := l.ListImages(s)
		if err != nil {
			return nil, err
		}
		for _, img := range imgs {
			lbl := l.LabelFor(s, img)
			res := labels.Validate(lbl, rules)
			if res.Valid {
				continue
			}
			issues := make([]string, len(res.Issues))
			for i, is := range res.Issues {
				issues[i] = string(is)
			}
			file := NoLabel
			if _, err := os.Stat(lbl); err == nil {
				file = filepath.Base(lbl)
			}
			out = append(out, InvalidLabel{
				Split:     s,
				Image:     filepath.Base(img),
				Reason:    strings.Join(issues, ","),
				LabelFile: file,
			})
		}
	}
	return out, nil
}

// WriteInvalid stores rows as CSV.
func WriteInvalid(path string, rows []InvalidLabel) error {
	out := [][]string{InvalidHeader}
	for _, r := range rows {
		out = append(out, []string{string(r.Split), r.Image, r.Reason, r.LabelFile})
	}
	return writeCSV(path, out)
}

// ErrNoInvalidReport is returned by ReadInvalid when the report is absent.
var ErrNoInvalidReport = errors.New("invalid label report not found; run the baseline audit first")

// ReadInvalid loads a report written by WriteInvalid. Columns are matched
// by header name.
func ReadInvalid(path string) ([]InvalidLabel, error) {
	f, err := os.Open(path) //nolint:gosec // G304: report path built from the dataset root
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoInvalidReport, path)
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	col := make(map[string]int)
	for i, h := range records[0] {
		col[strings.TrimSpace(h)] = i
	}
	get := func(r []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(r) {
			return ""
		}
		return strings.TrimSpace(r[i])
	}

	var out []InvalidLabel
	for _, r := range records[1:] {
		out = append(out, InvalidLabel{
			Split:     dataset.Split(get(r, "split")),
			Image:     get(r, "imagen"),
			Reason:    get(r, "motivo"),
			LabelFile: get(r, "label_file"),
		})
	}
	return out, nil
}
