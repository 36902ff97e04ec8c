package labels

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadDataYAML_ListNames(t *testing.T) {
	path := writeLabel(t, t.TempDir(), "data.yaml", "nc: 2\nnames: [\"plate\", 'car']\n")
	d, err := ReadDataYAML(path)
	require.NoError(t, err)
	require.NotNil(t, d.NC)
	assert.Equal(t, 2, *d.NC)
	assert.Equal(t, []string{"plate", "car"}, d.Names)
	assert.Equal(t, []int{0, 1}, d.AllowedClasses())
}

func TestReadDataYAML_MapNames(t *testing.T) {
	path := writeLabel(t, t.TempDir(), "data.yaml", "names:\n  1: car\n  0: plate\n")
	d, err := ReadDataYAML(path)
	require.NoError(t, err)
	assert.Nil(t, d.NC)
	assert.Nil(t, d.AllowedClasses())
	assert.Equal(t, []string{"plate", "car"}, d.Names)
}

func TestReadDataYAML_Missing(t *testing.T) {
	_, err := ReadDataYAML(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}

func TestWriteDataYAML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data_500.yaml")
	in := DataYAML{
		Path:  "/data/subsets_series/train_500",
		Train: "train_500.txt",
		Val:   "../../valid/images",
		Test:  "../../test/images",
		Names: []string{"license-plate"},
	}
	require.NoError(t, WriteDataYAML(path, in))

	out, err := ReadDataYAML(path)
	require.NoError(t, err)
	assert.Equal(t, in.Path, out.Path)
	assert.Equal(t, in.Train, out.Train)
	assert.Equal(t, in.Val, out.Val)
	assert.Equal(t, in.Names, out.Names)
	require.NotNil(t, out.NC)
	assert.Equal(t, 1, *out.NC)
}
