package imageio

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 128, 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	require.NoError(t, png.Encode(f, img))
}

func TestIsSupportedImage(t *testing.T) {
	cases := map[string]bool{
		"a.jpg":      true,
		"a.JPEG":     true,
		"dir/a.png":  true,
		"a.bmp":      true,
		"a.webp":     true,
		"a.txt":      false,
		"a.gif":      false,
		"noext":      false,
		"a.jpg.keep": false,
	}
	for path, want := range cases {
		assert.Equal(t, want, IsSupportedImage(path), path)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.png")
	writePNG(t, path, 40, 30)

	img, err := Load(path)
	require.NoError(t, err)
	w, h := Dimensions(img)
	assert.Equal(t, 40, w)
	assert.Equal(t, 30, h)
}

func TestLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
	assert.Equal(t, path, decErr.Path)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
