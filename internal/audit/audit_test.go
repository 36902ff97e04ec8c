package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/dscurate/internal/dataset"
	"github.com/MeKo-Tech/dscurate/internal/labels"
	"github.com/MeKo-Tech/dscurate/internal/testutil"
)

func fixture(t *testing.T) *testutil.Dataset {
	t.Helper()
	ds := testutil.NewDataset(t)
	img := testutil.SharpImage(testutil.TinySize, 1)
	ds.AddSample("train", "ok.png", img, "0 0.5 0.5 0.2 0.2\n1 0.3 0.3 0.1 0.1\n")
	ds.AddSample("train", "tiny.png", img, testutil.TinyLabel)
	ds.AddImage("train", "nolabel.png", img)
	ds.AddLabel("train", "orphan.png", testutil.ValidLabel)
	ds.AddSample("valid", "bad.png", img, testutil.InvalidLabel)
	ds.AddSample("valid", "cls.png", img, "3 0.5 0.5 0.2 0.2\n")
	return ds
}

func TestCount(t *testing.T) {
	ds := fixture(t)
	counts, err := Count(dataset.NewLayout(ds.Root))
	require.NoError(t, err)
	require.Len(t, counts, 3)

	assert.Equal(t, SplitCounts{Split: dataset.Train, Images: 3, Labels: 3, ImagesWithoutLabel: 1, LabelsWithoutImage: 1}, counts[0])
	assert.Equal(t, SplitCounts{Split: dataset.Valid, Images: 2, Labels: 2}, counts[1])
	assert.Equal(t, SplitCounts{Split: dataset.Test}, counts[2])

	imgs, lbls := Totals(counts)
	assert.Equal(t, 5, imgs)
	assert.Equal(t, 5, lbls)
}

func TestWriteCounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), PostCleanupFile)
	require.NoError(t, WriteCounts(path, []SplitCounts{{Split: dataset.Train, Images: 2, Labels: 1, ImagesWithoutLabel: 1, LabelsOK: 9}}, 5))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "split,imagenes_total,labels_total,imgs_sin_label,labels_sin_img\ntrain,2,1,1,0\n", string(data))
}

func TestComputeBaseline(t *testing.T) {
	ds := fixture(t)
	b, err := ComputeBaseline(dataset.NewLayout(ds.Root), BaselineOptions{
		MinBoxArea: labels.DefaultMinBoxArea,
		NC:         2,
		ClassNames: []string{"plate", "car"},
		Source:     "synthetic",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, b.Splits[0].LabelsOK)
	assert.Equal(t, 2, b.Splits[0].LabelsInvalid)
	assert.Equal(t, 1, b.Splits[1].LabelsOK, "class outside nc does not invalidate")
	assert.Equal(t, 1, b.Splits[1].LabelsInvalid)

	assert.Equal(t, map[string]int{"label_missing": 1, "only_tiny_boxes": 1}, b.Issues[dataset.Train])
	assert.Equal(t, map[string]int{"format_error": 1, "class_out_of_range": 1}, b.Issues[dataset.Valid])
	assert.Equal(t, map[int]int{0: 2, 1: 1}, b.Classes[dataset.Train])
	assert.Equal(t, []int{0, 1, 3}, b.ClassIDs())
}

func TestBaseline_Write(t *testing.T) {
	ds := fixture(t)
	b, err := ComputeBaseline(dataset.NewLayout(ds.Root), BaselineOptions{MinBoxArea: labels.DefaultMinBoxArea, ClassNames: []string{"plate"}})
	require.NoError(t, err)

	dir := ds.Path(DirName)
	require.NoError(t, b.Write(dir))

	classes, err := os.ReadFile(filepath.Join(dir, BaselineClassesFile))
	require.NoError(t, err)
	assert.Equal(t, "split,class_0,class_1,class_3\ntrain,2,1,0\nvalid,0,0,1\ntest,0,0,0\n", string(classes))

	issues, err := os.ReadFile(filepath.Join(dir, BaselineIssuesFile))
	require.NoError(t, err)
	assert.Equal(t, "split,issue,conteo\ntrain,label_missing,1\ntrain,only_tiny_boxes,1\nvalid,format_error,1\n", string(issues))

	summary, err := os.ReadFile(filepath.Join(dir, BaselineSummaryFile))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "train: imgs=3  labels=3  imgs_sin_label=1  labels_sin_img=1  labels_ok=1  labels_invalidos=2")
	assert.Contains(t, string(summary), "  0: plate")

	assert.FileExists(t, filepath.Join(dir, BaselineCountsFile))
}

func TestFindInvalid_AndPurge(t *testing.T) {
	ds := fixture(t)
	l := dataset.NewLayout(ds.Root)

	rows, err := FindInvalid(l, labels.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, []InvalidLabel{
		{Split: dataset.Train, Image: "nolabel.png", Reason: "missing", LabelFile: NoLabel},
		{Split: dataset.Train, Image: "tiny.png", Reason: "only_tiny_boxes", LabelFile: "tiny.txt"},
		{Split: dataset.Valid, Image: "bad.png", Reason: "format_error", LabelFile: "bad.txt"},
	}, rows)

	report := ds.Path(DirName, InvalidLabelsFile)
	require.NoError(t, WriteInvalid(report, rows))

	back, err := ReadInvalid(report)
	require.NoError(t, err)
	assert.Equal(t, rows, back)

	dry, err := Purge(l, report, ds.Path(TrashDir), true)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Images: 3, Labels: 2}, dry)
	assert.True(t, testutil.FileExists(ds.ImagePath("train", "tiny.png")))

	res, err := Purge(l, report, ds.Path(TrashDir), false)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Images: 3, Labels: 2}, res)
	assert.True(t, testutil.FileExists(ds.Path(TrashDir, "train", "images", "tiny.png")))
	assert.True(t, testutil.FileExists(ds.Path(TrashDir, "valid", "labels", "bad.txt")))
	assert.False(t, testutil.FileExists(ds.ImagePath("valid", "bad.png")))

	again, err := Purge(l, report, ds.Path(TrashDir), false)
	require.NoError(t, err)
	assert.Zero(t, again.Images)
}

func TestReadInvalid_Missing(t *testing.T) {
	_, err := ReadInvalid(filepath.Join(t.TempDir(), "none.csv"))
	assert.ErrorIs(t, err, ErrNoInvalidReport)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderTable(&buf, []string{"split", "n"}, [][]string{{"train", "12"}, {"valid", "3"}}))
	assert.Equal(t, "split | n \n------+---\ntrain | 12\nvalid | 3 \n------+---\n", buf.String())
}
