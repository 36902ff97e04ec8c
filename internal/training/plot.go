package training

import (
	"fmt"
	"image/color"
	"math"

	"github.com/fogleman/gg"
)

// Curve is one plotted line.
type Curve struct {
	Name   string
	Values []float64
	Color  color.Color
}

// Plot describes a simple line chart.
type Plot struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Curves []Curve
	Width  int
	Height int
}

var palette = []color.Color{
	color.RGBA{31, 119, 180, 255},
	color.RGBA{255, 127, 14, 255},
	color.RGBA{44, 160, 44, 255},
	color.RGBA{214, 39, 40, 255},
}

// SavePNG renders p and writes it to path.
func (p Plot) SavePNG(path string) error {
	w, h := p.Width, p.Height
	if w == 0 {
		w = 960
	}
	if h == 0 {
		h = 720
	}
	const margin = 70.0

	xmin, xmax := bounds(p.X)
	ymin, ymax := math.Inf(1), math.Inf(-1)
	for _, c := range p.Curves {
		lo, hi := bounds(c.Values)
		ymin, ymax = math.Min(ymin, lo), math.Max(ymax, hi)
	}
	if math.IsInf(ymin, 0) {
		ymin, ymax = 0, 1
	}
	if ymax == ymin {
		ymax = ymin + 1
	}
	if xmax == xmin {
		xmax = xmin + 1
	}

	fw, fh := float64(w), float64(h)
	px := func(x float64) float64 { return margin + (x-xmin)/(xmax-xmin)*(fw-2*margin) }
	py := func(y float64) float64 { return fh - margin - (y-ymin)/(ymax-ymin)*(fh-2*margin) }

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, fh-margin, fw-margin, fh-margin)
	dc.DrawLine(margin, margin, margin, fh-margin)
	dc.Stroke()

	dc.DrawStringAnchored(p.Title, fw/2, margin/2, 0.5, 0.5)
	dc.DrawStringAnchored(p.XLabel, fw/2, fh-margin/3, 0.5, 0.5)
	dc.DrawStringAnchored(p.YLabel, margin/4, fh/2, 0, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", ymin), margin-6, fh-margin, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", ymax), margin-6, margin, 1, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", xmin), margin, fh-margin+14, 0.5, 0.5)
	dc.DrawStringAnchored(fmt.Sprintf("%.3g", xmax), fw-margin, fh-margin+14, 0.5, 0.5)

	for i, c := range p.Curves {
		col := c.Color
		if col == nil {
			col = palette[i%len(palette)]
		}
		dc.SetColor(col)
		dc.SetLineWidth(2)
		started := false
		for j, v := range c.Values {
			if j >= len(p.X) || math.IsNaN(v) || math.IsNaN(p.X[j]) {
				started = false
				continue
			}
			if started {
				dc.LineTo(px(p.X[j]), py(v))
			} else {
				dc.MoveTo(px(p.X[j]), py(v))
				started = true
			}
		}
		dc.Stroke()

		ly := margin + 16*float64(i+1)
		dc.DrawLine(fw-margin-120, ly, fw-margin-100, ly)
		dc.Stroke()
		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(c.Name, fw-margin-94, ly, 0, 0.5)
	}

	return dc.SavePNG(path)
}

func bounds(vs []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if math.IsInf(lo, 0) {
		return 0, 1
	}
	return lo, hi
}
