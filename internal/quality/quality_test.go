package quality

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniform(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func checkerboard(w, h, cell int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			if ((x/cell)+(y/cell))%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func TestLaplacianVariance_Uniform(t *testing.T) {
	img := uniform(16, 12, color.Gray{Y: 100})
	assert.InDelta(t, 0.0, LaplacianVariance(img), 1e-9)
}

func TestLaplacianVariance_SharpBeatsSmooth(t *testing.T) {
	sharp := LaplacianVariance(checkerboard(64, 64, 1))
	coarse := LaplacianVariance(checkerboard(64, 64, 16))
	assert.Greater(t, sharp, coarse)
	assert.Greater(t, coarse, 0.0)
}

func TestLaplacianVariance_SinglePixel(t *testing.T) {
	img := uniform(1, 1, color.White)
	assert.InDelta(t, 0.0, LaplacianVariance(img), 1e-9)
}

func TestMeanBrightness(t *testing.T) {
	assert.InDelta(t, 255.0, MeanBrightness(uniform(8, 8, color.White)), 1e-6)
	assert.InDelta(t, 0.0, MeanBrightness(uniform(8, 8, color.Black)), 1e-6)
	// HSV value is the max channel, so saturated red is fully bright.
	assert.InDelta(t, 255.0, MeanBrightness(uniform(8, 8, color.NRGBA{R: 255, A: 255})), 1e-6)
	assert.InDelta(t, 127.5, MeanBrightness(checkerboard(8, 8, 1)), 1e-6)
}

func TestMeasure(t *testing.T) {
	m := Measure(uniform(20, 10, color.Gray{Y: 50}))
	assert.Equal(t, 20, m.Width)
	assert.Equal(t, 10, m.Height)
	assert.InDelta(t, 50.0, m.Brightness, 0.5)

	assert.Equal(t, Metrics{}, Measure(nil))
}

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(2, 5))
	assert.Equal(t, 0, reflect101(-1, 1))
	assert.Equal(t, 1, reflect101(-1, 2))
	assert.Equal(t, 0, reflect101(2, 2))
}

func TestCheck_Priority(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name string
		m    Metrics
		want Verdict
	}{
		{"passes", Metrics{Width: 640, Height: 480, BlurScore: 100, Brightness: 120}, Pass},
		{"small and blurry is small", Metrics{Width: 100, Height: 100, BlurScore: 1, Brightness: 120}, TooSmall},
		{"short height", Metrics{Width: 640, Height: 239, BlurScore: 100, Brightness: 120}, TooSmall},
		{"blurry and dark is blurry", Metrics{Width: 640, Height: 480, BlurScore: 29.9, Brightness: 10}, Blurry},
		{"too dark", Metrics{Width: 640, Height: 480, BlurScore: 30, Brightness: 39.9}, ExposureExtreme},
		{"too bright", Metrics{Width: 640, Height: 480, BlurScore: 30, Brightness: 230.1}, ExposureExtreme},
		{"bounds inclusive", Metrics{Width: 320, Height: 240, BlurScore: 30, Brightness: 230}, Pass},
		{"unreadable", Metrics{}, TooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, th.Check(tt.m))
		})
	}
}
