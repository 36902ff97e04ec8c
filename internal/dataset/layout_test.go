package dataset_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/testutil"
)

func TestParseSplits(t *testing.T) {
	splits, err := dataset.ParseSplits([]string{"train", " VALID "})
	require.NoError(t, err)
	assert.Equal(t, []dataset.Split{dataset.Train, dataset.Valid}, splits)

	_, err = dataset.ParseSplits([]string{"holdout"})
	require.Error(t, err)
}

func TestLayout_CheckRoot(t *testing.T) {
	l := dataset.NewLayout(filepath.Join(t.TempDir(), "nope"))
	err := l.CheckRoot()
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrRootMissing))

	ds := testutil.NewDataset(t)
	require.NoError(t, dataset.NewLayout(ds.Root).CheckRoot())
}

func TestLayout_LabelFor(t *testing.T) {
	l := dataset.NewLayout("/data")
	got := l.LabelFor(dataset.Valid, "/data/valid/images/car.01.JPG")
	assert.Equal(t, filepath.Join("/data", "valid", "labels", "car.01.txt"), got)
}

func TestLayout_ListImages(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.AddImage("train", "b.png", testutil.SharpImage(testutil.TinySize, 1))
	ds.AddImage("train", "a.JPG", testutil.SharpImage(testutil.TinySize, 2))
	testutil.WriteFile(t, ds.ImagePath("train", "notes.md"), "x")

	l := dataset.NewLayout(ds.Root)
	files, status, err := l.ListImages(dataset.Train)
	require.NoError(t, err)
	assert.Equal(t, dataset.SplitScanned, status)
	assert.Equal(t, []string{ds.ImagePath("train", "a.JPG"), ds.ImagePath("train", "b.png")}, files)

	files, status, err = l.ListImages(dataset.Test)
	require.NoError(t, err)
	assert.Equal(t, dataset.SplitSkipped, status)
	assert.Empty(t, files)
	assert.Equal(t, "skipped", status.String())
}

func TestLayout_ListLabels(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.AddLabel("valid", "x.jpg", testutil.ValidLabel)
	testutil.WriteFile(t, ds.Path("valid", "labels", "classes.csv"), "a")

	files, _, err := dataset.NewLayout(ds.Root).ListLabels(dataset.Valid)
	require.NoError(t, err)
	assert.Equal(t, []string{ds.LabelPath("valid", "x.jpg")}, files)
}

func TestLayout_CountImages(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.AddImage("train", "a.png", testutil.SharpImage(testutil.TinySize, 1))
	ds.AddImage("train", "b.png", testutil.SharpImage(testutil.TinySize, 2))
	ds.AddImage("test", "c.png", testutil.SharpImage(testutil.TinySize, 3))

	counts, err := dataset.NewLayout(ds.Root).CountImages()
	require.NoError(t, err)
	assert.Equal(t, map[dataset.Split]int{dataset.Train: 2, dataset.Valid: 0, dataset.Test: 1}, counts)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "img.v2", dataset.Stem("/a/b/img.v2.png"))
}
