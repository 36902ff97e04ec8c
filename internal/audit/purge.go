package audit

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
)

// TrashDir is the folder purged pairs are moved to, under the dataset root.
const TrashDir = "_trash"

// PurgeResult counts what a purge moved.
type PurgeResult struct {
	Images int
	Labels int
}

// Purge moves every pair listed in the invalid label report into
// trash/<split>/{images,labels}. Entries whose files are already gone are
// skipped. With dryRun set nothing is moved but the counts are reported.
func Purge(l dataset.Layout, report, trash string, dryRun bool) (PurgeResult, error) {
	rows, err := ReadInvalid(report)
	if err != nil {
		return PurgeResult{}, err
	}

	var res PurgeResult
	for _, r := range rows {
		if r.Split == "" || r.Image == "" {
			continue
		}
		img := filepath.Join(l.ImagesDir(r.Split), r.Image)
		var lbl string
		if r.LabelFile != "" && r.LabelFile != NoLabel {
			lbl = filepath.Join(l.LabelsDir(r.Split), r.LabelFile)
		}

		imgDst := filepath.Join(trash, string(r.Split), "images")
		lblDst := filepath.Join(trash, string(r.Split), "labels")
		if !dryRun {
			for _, d := range []string{imgDst, lblDst} {
				if err := os.MkdirAll(d, 0o750); err != nil {
					return res, fmt.Errorf("create trash folder: %w", err)
				}
			}
		}

		moved, err := moveIfExists(img, filepath.Join(imgDst, r.Image), dryRun)
		if err != nil {
			return res, err
		}
		if moved {
			res.Images++
		}
		if lbl != "" {
			moved, err := moveIfExists(lbl, filepath.Join(lblDst, r.LabelFile), dryRun)
			if err != nil {
				return res, err
			}
			if moved {
				res.Labels++
			}
		}
	}
	slog.Info("Purge finished", "images", res.Images, "labels", res.Labels, "trash", trash, "dry_run", dryRun)
	return res, nil
}

func moveIfExists(src, dst string, dryRun bool) (bool, error) {
	if _, err := os.Stat(src); err != nil {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := os.Rename(src, dst); err != nil {
		return false, fmt.Errorf("move %s: %w", src, err)
	}
	return true, nil
}
