// Package quarantine moves rejected image/label pairs out of the dataset
// into per-reason folders and records every decision in a CSV log.
package quarantine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DirName is the quarantine folder created under the dataset root.
const DirName = "_quarantine"

// Category names a quarantine destination folder.
type Category string

const (
	DuplicatesExact Category = "duplicates_exact"
	DuplicatesNear  Category = "duplicates_near"
	TooSmall        Category = "too_small"
	Blurry          Category = "blurry"
	ExposureReview  Category = "exposure_review"
	BadLabel        Category = "bad_label"
	TinyBox         Category = "tiny_box"
)

// Categories lists every destination in stage order.
var Categories = []Category{DuplicatesExact, DuplicatesNear, TooSmall, Blurry, ExposureReview, BadLabel, TinyBox}

// Action tells whether a decision touched the filesystem.
type Action string

const (
	Moved Action = "MOVED"
	Dry   Action = "DRY"
)

// Decision is one logged disposal.
type Decision struct {
	Reason   string
	SrcImage string
	// SrcLabel is empty when the image had no label file.
	SrcLabel string
	DstDir   string
	Action   Action
}

// Mover relocates pairs into Root/<category>/. A dry-run mover only logs.
type Mover struct {
	Root   string
	DryRun bool
	log    *Log
	moved  map[Category]int
}

// NewMover prepares the category folders under root and returns a mover
// writing decisions to log. Folders are not created in dry-run mode.
func NewMover(root string, log *Log, dryRun bool) (*Mover, error) {
	if !dryRun {
		for _, c := range Categories {
			if err := os.MkdirAll(filepath.Join(root, string(c)), 0o750); err != nil {
				return nil, fmt.Errorf("create quarantine folder: %w", err)
			}
		}
	}
	return &Mover{Root: root, DryRun: dryRun, log: log, moved: make(map[Category]int)}, nil
}

// Dir returns the folder of category c.
func (m *Mover) Dir(c Category) string { return filepath.Join(m.Root, string(c)) }

// Move logs the decision and then moves the image followed by its label,
// when the label exists. The log row is written first so that an
// interrupted run still shows what was attempted.
func (m *Mover) Move(image, label string, c Category, reason string) (Decision, error) {
	if label != "" {
		if _, err := os.Stat(label); err != nil {
			label = ""
		}
	}

	d := Decision{
		Reason:   reason,
		SrcImage: image,
		SrcLabel: label,
		DstDir:   m.Dir(c),
		Action:   Moved,
	}
	if m.DryRun {
		d.Action = Dry
	}

	if m.log != nil {
		if err := m.log.Append(d); err != nil {
			return d, err
		}
	}
	m.moved[c]++
	if m.DryRun {
		return d, nil
	}

	imgDst, lblDst := m.destinations(d.DstDir, image, label)
	if err := os.Rename(image, imgDst); err != nil {
		return d, fmt.Errorf("move image %s: %w", image, err)
	}
	if label != "" {
		if err := os.Rename(label, lblDst); err != nil {
			return d, fmt.Errorf("move label %s: %w", label, err)
		}
	}
	return d, nil
}

// Counts returns the number of decisions per category so far.
func (m *Mover) Counts() map[Category]int {
	out := make(map[Category]int, len(m.moved))
	for k, v := range m.moved {
		out[k] = v
	}
	return out
}

// destinations picks target paths inside dir. When a file of the same name
// is already quarantined, image and label both get a _<n> suffix on the stem.
func (m *Mover) destinations(dir, image, label string) (string, string) {
	imgBase := filepath.Base(image)
	ext := filepath.Ext(imgBase)
	stem := strings.TrimSuffix(imgBase, ext)
	lblExt := filepath.Ext(label)

	candidate := stem
	for n := 1; ; n++ {
		imgDst := filepath.Join(dir, candidate+ext)
		lblDst := ""
		if label != "" {
			lblDst = filepath.Join(dir, candidate+lblExt)
		}
		if !exists(imgDst) && (lblDst == "" || !exists(lblDst)) {
			return imgDst, lblDst
		}
		candidate = stem + "_" + strconv.Itoa(n)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
