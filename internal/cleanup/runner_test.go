package cleanup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/quarantine"
	"github.com/MeKo-Tech/dscurate/internal/testutil"
)

func run(t *testing.T, ds *testutil.Dataset, dry bool, stages ...Stage) *Report {
	t.Helper()
	opts := DefaultOptions(ds.Root)
	opts.DryRun = dry
	rep, err := NewRunner(opts).Run(context.Background(), stages)
	require.NoError(t, err)
	return rep
}

func readLog(t *testing.T, ds *testutil.Dataset) []quarantine.Decision {
	t.Helper()
	rows, err := quarantine.ReadLog(ds.Path("audit_out", "moves_log.csv"))
	require.NoError(t, err)
	return rows
}

func TestRun_ExactDuplicateAcrossSplits(t *testing.T) {
	ds := testutil.NewDataset(t)
	a, _ := ds.AddSample("train", "a.jpg", testutil.SharpImage(testutil.MediumSize, 1), testutil.ValidLabel)
	b := ds.ImagePath("valid", "b.jpg")
	testutil.CopyFile(t, a, b)

	rep := run(t, ds, false, StageExact)

	assert.True(t, testutil.FileExists(a))
	assert.False(t, testutil.FileExists(b))
	assert.True(t, testutil.FileExists(ds.Path(quarantine.DirName, "duplicates_exact", "b.jpg")))

	rows := readLog(t, ds)
	require.Len(t, rows, 1)
	assert.Equal(t, "duplicate_exact", rows[0].Reason)
	assert.Equal(t, b, rows[0].SrcImage)
	assert.Empty(t, rows[0].SrcLabel)
	assert.Equal(t, quarantine.Moved, rows[0].Action)

	require.Len(t, rep.Stages, 1)
	assert.Equal(t, 1, rep.Stages[0].Moves)
	assert.Equal(t, 1, rep.Stages[0].Counts[dataset.Train])
	assert.Equal(t, 0, rep.Stages[0].Counts[dataset.Valid])
	assert.Equal(t, 1, rep.Initial[dataset.Valid])
}

func TestRun_ExactIsIdempotent(t *testing.T) {
	ds := testutil.NewDataset(t)
	a := ds.AddImage("valid", "a.png", testutil.SharpImage(testutil.SmallSize, 1))
	testutil.CopyFile(t, a, ds.ImagePath("test", "a.png"))
	testutil.CopyFile(t, a, ds.ImagePath("test", "c.png"))

	first := run(t, ds, false, StageExact)
	assert.Equal(t, 2, first.TotalMoves())

	second := run(t, ds, false, StageExact)
	assert.Zero(t, second.TotalMoves())
	assert.Empty(t, readLog(t, ds))
	assert.True(t, testutil.FileExists(a))
}

func TestRun_NearDuplicateAcrossSplits(t *testing.T) {
	ds := testutil.NewDataset(t)
	img := testutil.SharpImage(testutil.MediumSize, 4)
	keep := ds.AddImage("train", "p.png", img)
	drop := ds.AddImage("test", "p.bmp", img)

	rep := run(t, ds, false, StageNear)

	assert.Equal(t, 1, rep.TotalMoves())
	assert.True(t, testutil.FileExists(keep))
	assert.False(t, testutil.FileExists(drop))
	assert.Equal(t, 1, rep.Stages[0].Reasons["near_duplicate_h0"])
}

func TestRun_NearDuplicateSameSplitUntouched(t *testing.T) {
	ds := testutil.NewDataset(t)
	img := testutil.SharpImage(testutil.MediumSize, 5)
	a := ds.AddImage("train", "p.png", img)
	b := ds.AddImage("train", "p.bmp", img)

	rep := run(t, ds, false, StageNear)

	assert.Zero(t, rep.TotalMoves())
	assert.True(t, testutil.FileExists(a))
	assert.True(t, testutil.FileExists(b))
}

func TestRun_QualityCategories(t *testing.T) {
	ds := testutil.NewDataset(t)
	good := ds.AddImage("train", "good.png", testutil.SharpImage(testutil.MediumSize, 1))
	ds.AddSample("train", "small.png", testutil.FlatImage(testutil.TinySize, testutil.Gray(128)), testutil.ValidLabel)
	ds.AddImage("valid", "blurry.png", testutil.FlatImage(testutil.MediumSize, testutil.Gray(128)))
	ds.AddImage("test", "dark.png", testutil.DarkImage(testutil.MediumSize, 2))

	rep := run(t, ds, false, StageQuality)

	assert.True(t, testutil.FileExists(good))
	q := func(c quarantine.Category, name string) string { return ds.Path(quarantine.DirName, string(c), name) }
	assert.True(t, testutil.FileExists(q(quarantine.TooSmall, "small.png")))
	assert.True(t, testutil.FileExists(q(quarantine.TooSmall, "small.txt")))
	assert.True(t, testutil.FileExists(q(quarantine.Blurry, "blurry.png")))
	assert.True(t, testutil.FileExists(q(quarantine.ExposureReview, "dark.png")))
	assert.Equal(t, map[string]int{"too_small": 1, "blurry": 1, "exposure_extreme": 1}, rep.Stages[0].Reasons)
}

func TestRun_LabelStage(t *testing.T) {
	ds := testutil.NewDataset(t)
	img := testutil.SharpImage(testutil.SmallSize, 1)
	ok, _ := ds.AddSample("train", "ok.png", img, testutil.ValidLabel)
	ds.AddSample("train", "tiny.png", img, testutil.TinyLabel)
	ds.AddSample("valid", "broken.png", img, testutil.InvalidLabel)
	ds.AddImage("test", "nolabel.png", img)

	rep := run(t, ds, false, StageLabels)

	assert.True(t, testutil.FileExists(ok))
	assert.True(t, testutil.FileExists(ds.Path(quarantine.DirName, "tiny_box", "tiny.png")))
	assert.True(t, testutil.FileExists(ds.Path(quarantine.DirName, "tiny_box", "tiny.txt")))
	assert.True(t, testutil.FileExists(ds.Path(quarantine.DirName, "bad_label", "broken.png")))
	assert.True(t, testutil.FileExists(ds.Path(quarantine.DirName, "bad_label", "nolabel.png")))
	assert.Equal(t, map[string]int{"tiny_box": 1, "bad_label": 2}, rep.Stages[0].Reasons)
	assert.Nil(t, rep.Splits, "label stage alone does not scan")
}

func TestRun_DryRunOneCategoryPerPair(t *testing.T) {
	ds := testutil.NewDataset(t)
	a, _ := ds.AddSample("train", "a.png", testutil.SharpImage(testutil.TinySize, 1), testutil.ValidLabel)
	b := ds.ImagePath("valid", "b.png")
	testutil.CopyFile(t, a, b)

	rep := run(t, ds, true, AllStages...)

	assert.True(t, testutil.FileExists(a))
	assert.True(t, testutil.FileExists(b))
	assert.False(t, testutil.DirExists(ds.Path(quarantine.DirName)))

	rows := readLog(t, ds)
	seen := map[string]int{}
	for _, r := range rows {
		assert.Equal(t, quarantine.Dry, r.Action)
		seen[r.SrcImage]++
	}
	assert.Equal(t, map[string]int{a: 1, b: 1}, seen)
	assert.Equal(t, 1, rep.Stages[0].Reasons["duplicate_exact"])
	assert.Equal(t, 1, rep.Stages[2].Reasons["too_small"])
	assert.Equal(t, map[quarantine.Category]int{quarantine.DuplicatesExact: 1, quarantine.TooSmall: 1}, rep.Categories)
	assert.Equal(t, 2, rep.LogRows)
}

func TestRun_RootMissing(t *testing.T) {
	opts := DefaultOptions(filepath.Join(t.TempDir(), "missing"))
	_, err := NewRunner(opts).Run(context.Background(), AllStages)
	require.Error(t, err)
	assert.True(t, errors.Is(err, dataset.ErrRootMissing))
	assert.True(t, IsSetupError(err))
}

func TestRun_MissingSplitIsSkipped(t *testing.T) {
	ds := testutil.NewDataset(t)
	ds.AddImage("train", "good.png", testutil.SharpImage(testutil.MediumSize, 1))

	rep := run(t, ds, false, StageQuality)
	require.Len(t, rep.Splits, 3)
	assert.Equal(t, dataset.SplitScanned, rep.Splits[0].Status)
	assert.Equal(t, dataset.SplitSkipped, rep.Splits[1].Status)
	assert.Equal(t, dataset.SplitSkipped, rep.Splits[2].Status)
}

func TestRun_WritesMetrics(t *testing.T) {
	ds := testutil.NewDataset(t)
	a := ds.AddImage("train", "a.png", testutil.SharpImage(testutil.MediumSize, 1))
	testutil.CopyFile(t, a, ds.ImagePath("valid", "a.png"))

	opts := DefaultOptions(ds.Root)
	opts.Metrics = NewMetrics()
	_, err := NewRunner(opts).Run(context.Background(), []Stage{StageExact})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "dscurate.prom")
	require.NoError(t, opts.Metrics.WriteTextfile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text,
		`dscurate_moves_total{action="MOVED",reason="duplicate_exact",stage="A"} 1`), text)
	assert.Contains(t, text, `dscurate_split_images{split="valid"} 0`)
	assert.Contains(t, text, "dscurate_stage_duration_seconds_count")
}
