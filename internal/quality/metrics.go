package quality

import (
	"image"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"

	"github.com/MeKo-Tech/dscurate/internal/mempool"
)

// Metrics holds the per-image measurements the quality filter works on.
type Metrics struct {
	Width      int
	Height     int
	BlurScore  float64
	Brightness float64
}

// Measure computes dimensions, blur score and brightness of img.
// A nil image yields zero metrics.
func Measure(img image.Image) Metrics {
	if img == nil {
		return Metrics{}
	}
	b := img.Bounds()
	return Metrics{
		Width:      b.Dx(),
		Height:     b.Dy(),
		BlurScore:  LaplacianVariance(img),
		Brightness: MeanBrightness(img),
	}
}

// LaplacianVariance returns the population variance of the 4-neighbour
// Laplacian response over the grayscale image. Borders are reflected without
// repeating the edge pixel. Low values indicate a blurry image.
func LaplacianVariance(img image.Image) float64 {
	gray := imaging.Grayscale(img)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		// Grayscale output has R == G == B.
		return float64(gray.Pix[reflect101(y, h)*gray.Stride+reflect101(x, w)*4])
	}

	response := mempool.GetFloat64(w * h)
	defer mempool.PutFloat64(response)
	for y := range h {
		for x := range w {
			response[y*w+x] = at(x-1, y) + at(x+1, y) + at(x, y-1) + at(x, y+1) - 4*at(x, y)
		}
	}

	_, variance := stat.PopMeanVariance(response, nil)
	return variance
}

// MeanBrightness returns the mean HSV value channel of img on a 0..255 scale.
func MeanBrightness(img image.Image) float64 {
	src := imaging.Clone(img)
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	if w == 0 || h == 0 {
		return 0
	}

	values := mempool.GetFloat64(w * h)
	defer mempool.PutFloat64(values)
	i := 0
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < len(row); x += 4 {
			c := colorful.Color{
				R: float64(row[x]) / 255,
				G: float64(row[x+1]) / 255,
				B: float64(row[x+2]) / 255,
			}
			_, _, v := c.Hsv()
			values[i] = v * 255
			i++
		}
	}
	return stat.Mean(values, nil)
}

// reflect101 maps an out-of-range index back into [0, n) by mirroring
// around the edge pixel (dcb|abcd|cba).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
