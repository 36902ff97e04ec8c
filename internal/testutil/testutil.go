package testutil

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Label bodies used across tests.
const (
	ValidLabel   = "0 0.500000 0.500000 0.200000 0.100000\n"
	TinyLabel    = "0 0.500000 0.500000 0.010000 0.010000\n"
	InvalidLabel = "0 0.5 0.5\n"
)

// GetProjectRoot returns the project root directory by finding go.mod.
func GetProjectRoot() (string, error) {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("failed to get caller information")
	}
	dir := filepath.Dir(filename)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find go.mod file starting from %s", filepath.Dir(filename))
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0o750)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return !os.IsNotExist(err) && info.IsDir()
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// Dataset builds a split-structured YOLO dataset in a temporary directory.
type Dataset struct {
	t    *testing.T
	Root string
}

// NewDataset creates an empty dataset root.
func NewDataset(t *testing.T) *Dataset {
	t.Helper()

	root := filepath.Join(t.TempDir(), "dataset")
	require.NoError(t, EnsureDir(root))
	return &Dataset{t: t, Root: root}
}

// ImagePath returns <root>/<split>/images/<name>.
func (d *Dataset) ImagePath(split, name string) string {
	return filepath.Join(d.Root, split, "images", name)
}

// LabelPath returns the label path paired with an image name.
func (d *Dataset) LabelPath(split, name string) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(d.Root, split, "labels", stem+".txt")
}

// AddImage writes img under split and returns its path.
func (d *Dataset) AddImage(split, name string, img image.Image) string {
	d.t.Helper()

	path := d.ImagePath(split, name)
	SaveImage(d.t, img, path)
	return path
}

// AddLabel writes the label paired with name and returns its path.
func (d *Dataset) AddLabel(split, name, content string) string {
	d.t.Helper()

	path := d.LabelPath(split, name)
	WriteFile(d.t, path, content)
	return path
}

// AddSample writes an image together with its label.
func (d *Dataset) AddSample(split, name string, img image.Image, label string) (string, string) {
	d.t.Helper()

	return d.AddImage(split, name, img), d.AddLabel(split, name, label)
}

// AddCorrupt writes bytes that no image decoder accepts.
func (d *Dataset) AddCorrupt(split, name string) string {
	d.t.Helper()

	path := d.ImagePath(split, name)
	WriteFile(d.t, path, "definitely not an image")
	return path
}

// Path joins elements onto the dataset root.
func (d *Dataset) Path(elem ...string) string {
	return filepath.Join(append([]string{d.Root}, elem...)...)
}
