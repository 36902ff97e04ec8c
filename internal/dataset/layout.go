// Package dataset describes the on-disk layout of a YOLO dataset and scans
// it into an in-memory snapshot of image records.
package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/dscurate/internal/imageio"
	"github.com/MeKo-Tech/dscurate/internal/labels"
)

// Split is one dataset partition.
type Split string

const (
	Train Split = "train"
	Valid Split = "valid"
	Test  Split = "test"
)

// DefaultSplits lists the partitions in scan order.
var DefaultSplits = []Split{Train, Valid, Test}

// ParseSplits converts names into splits, rejecting unknown ones.
func ParseSplits(names []string) ([]Split, error) {
	out := make([]Split, 0, len(names))
	for _, n := range names {
		s := Split(strings.ToLower(strings.TrimSpace(n)))
		switch s {
		case Train, Valid, Test:
			out = append(out, s)
		default:
			return nil, fmt.Errorf("unknown split %q (must be train, valid or test)", n)
		}
	}
	return out, nil
}

// SplitStatus tells whether a split directory was present when listed.
type SplitStatus int

const (
	SplitScanned SplitStatus = iota
	// SplitSkipped marks a split whose directory does not exist. It is a
	// valid state: a dataset may legitimately hold only some partitions.
	SplitSkipped
)

func (s SplitStatus) String() string {
	if s == SplitSkipped {
		return "skipped"
	}
	return "scanned"
}

// ErrRootMissing is returned when the dataset root directory does not exist.
var ErrRootMissing = errors.New("dataset root does not exist")

// Layout locates splits, images and labels under a dataset root.
type Layout struct {
	Root       string
	Splits     []Split
	Extensions []string
}

// NewLayout returns a layout over root with the default splits and extensions.
func NewLayout(root string) Layout {
	return Layout{
		Root:       root,
		Splits:     DefaultSplits,
		Extensions: imageio.SupportedImageExtensions,
	}
}

// CheckRoot verifies that the dataset root exists and is a directory.
func (l Layout) CheckRoot() error {
	info, err := os.Stat(l.Root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrRootMissing, l.Root)
	}
	return nil
}

// ImagesDir returns {root}/{split}/images.
func (l Layout) ImagesDir(s Split) string { return filepath.Join(l.Root, string(s), "images") }

// LabelsDir returns {root}/{split}/labels.
func (l Layout) LabelsDir(s Split) string { return filepath.Join(l.Root, string(s), "labels") }

// LabelFor returns the label path paired with an image of split s.
func (l Layout) LabelFor(s Split, imagePath string) string {
	base := filepath.Base(imagePath)
	return filepath.Join(l.LabelsDir(s), strings.TrimSuffix(base, filepath.Ext(base))+labels.Ext)
}

// IsImage reports whether path carries one of the layout's image extensions.
func (l Layout) IsImage(path string) bool {
	return imageio.HasExtension(path, l.Extensions)
}

// ListImages returns the sorted image files of a split.
func (l Layout) ListImages(s Split) ([]string, SplitStatus, error) {
	return listFiles(l.ImagesDir(s), l.IsImage)
}

// ListLabels returns the sorted label files of a split.
func (l Layout) ListLabels(s Split) ([]string, SplitStatus, error) {
	return listFiles(l.LabelsDir(s), func(p string) bool {
		return strings.EqualFold(filepath.Ext(p), labels.Ext)
	})
}

func listFiles(dir string, keep func(string) bool) ([]string, SplitStatus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, SplitSkipped, nil
		}
		return nil, SplitScanned, fmt.Errorf("list %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if keep(p) {
			files = append(files, p)
		}
	}
	sort.Strings(files)
	return files, SplitScanned, nil
}

// Stem returns the file name without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CountImages returns the number of images currently present in each split.
func (l Layout) CountImages() (map[Split]int, error) {
	counts := make(map[Split]int, len(l.Splits))
	for _, s := range l.Splits {
		files, _, err := l.ListImages(s)
		if err != nil {
			return nil, err
		}
		counts[s] = len(files)
	}
	return counts, nil
}
