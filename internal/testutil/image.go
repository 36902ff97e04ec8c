package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ImageSize represents image dimensions.
type ImageSize struct {
	Width  int
	Height int
}

var (
	// Common test image sizes. SmallSize sits exactly on the default
	// minimum resolution.
	TinySize   = ImageSize{160, 120}
	SmallSize  = ImageSize{320, 240}
	MediumSize = ImageSize{640, 480}
)

// PlateImageConfig holds configuration for generating a synthetic plate scene.
type PlateImageConfig struct {
	Text string
	Size ImageSize
	// Seed drives the background texture; different seeds give visually
	// unrelated images.
	Seed uint64
	// BlockSize is the edge of each random texture block in pixels.
	BlockSize int
	// MinGray and MaxGray bound the texture intensity.
	MinGray uint8
	MaxGray uint8
}

// DefaultPlateImageConfig returns a sharp, mid-exposure scene.
func DefaultPlateImageConfig() PlateImageConfig {
	return PlateImageConfig{
		Text:      "AB-123-CD",
		Size:      MediumSize,
		Seed:      1,
		BlockSize: 16,
		MinGray:   60,
		MaxGray:   200,
	}
}

// GeneratePlateImage draws a blocky random texture with a white plate and
// black text in the middle. The texture gives a high Laplacian variance.
func GeneratePlateImage(cfg PlateImageConfig) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, cfg.Size.Width, cfg.Size.Height))
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	block := max(cfg.BlockSize, 1)
	span := int(cfg.MaxGray) - int(cfg.MinGray) + 1
	for y := 0; y < cfg.Size.Height; y += block {
		for x := 0; x < cfg.Size.Width; x += block {
			g := uint8(int(cfg.MinGray) + rng.IntN(span)) //nolint:gosec // bounded by MaxGray
			r := image.Rect(x, y, x+block, y+block)
			draw.Draw(img, r, &image.Uniform{color.RGBA{g, g, g, 255}}, image.Point{}, draw.Src)
		}
	}

	if cfg.Text == "" {
		return img
	}

	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, cfg.Text).Ceil()
	textHeight := face.Metrics().Height.Ceil()
	plate := image.Rect(
		(cfg.Size.Width-textWidth)/2-6, (cfg.Size.Height-textHeight)/2-4,
		(cfg.Size.Width+textWidth)/2+6, (cfg.Size.Height+textHeight)/2+4,
	)
	draw.Draw(img, plate, &image.Uniform{color.White}, image.Point{}, draw.Src)

	drawer := &font.Drawer{Dst: img, Src: &image.Uniform{color.Black}, Face: face}
	drawer.Dot = fixed.P((cfg.Size.Width-textWidth)/2, (cfg.Size.Height+textHeight)/2-2)
	drawer.DrawString(cfg.Text)

	return img
}

// SharpImage returns a textured scene of the given size.
func SharpImage(size ImageSize, seed uint64) *image.RGBA {
	cfg := DefaultPlateImageConfig()
	cfg.Size = size
	cfg.Seed = seed
	return GeneratePlateImage(cfg)
}

// FlatImage returns a single-colour image, which has zero Laplacian variance.
func FlatImage(size ImageSize, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// DarkImage returns a sharp but underexposed scene.
func DarkImage(size ImageSize, seed uint64) *image.RGBA {
	cfg := DefaultPlateImageConfig()
	cfg.Size = size
	cfg.Seed = seed
	cfg.Text = ""
	cfg.MinGray, cfg.MaxGray = 0, 30
	cfg.BlockSize = 2
	return GeneratePlateImage(cfg)
}

// Resized returns img scaled to size, keeping it perceptually identical.
func Resized(img image.Image, size ImageSize) *image.NRGBA {
	return imaging.Resize(img, size.Width, size.Height, imaging.Lanczos)
}

// SaveImage encodes img to path, picking JPEG, BMP or PNG from the extension.
func SaveImage(t *testing.T, img image.Image, path string) {
	t.Helper()

	require.NoError(t, EnsureDir(filepath.Dir(path)))

	file, err := os.Create(path) //nolint:gosec // G304: Test file creation with controlled path
	require.NoError(t, err, "Failed to create file %s", path)
	defer func() {
		require.NoError(t, file.Close())
	}()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 95})
	case ".bmp":
		err = bmp.Encode(file, img)
	default:
		err = png.Encode(file, img)
	}
	require.NoError(t, err, "Failed to encode image %s", path)
}

// CopyFile duplicates src at dst byte for byte.
func CopyFile(t *testing.T, src, dst string) {
	t.Helper()

	data, err := os.ReadFile(src) //nolint:gosec // G304: Test file reading with controlled path
	require.NoError(t, err)
	require.NoError(t, EnsureDir(filepath.Dir(dst)))
	require.NoError(t, os.WriteFile(dst, data, 0o600))
}

// Gray returns an opaque gray of intensity y.
func Gray(y uint8) color.Color { return color.Gray{Y: y} }
