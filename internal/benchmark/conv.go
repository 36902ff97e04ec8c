package benchmark

import (
	"context"
	"math/rand/v2"

	"github.com/MeKo-Tech/dscurate/internal/onnx"
)

// Conv2D is a single convolution layer with square kernels, zero padding
// and no bias.
type Conv2D struct {
	In, Out int
	Kernel  int
	Stride  int
	Pad     int
	Weights []float32 // [Out][In][Kernel][Kernel]
}

// NewConv2D returns a layer with deterministic random weights.
func NewConv2D(in, out, kernel, stride, pad int, seed uint64) *Conv2D {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	w := make([]float32, out*in*kernel*kernel)
	for i := range w {
		w[i] = float32(rng.NormFloat64()) * 0.1
	}
	return &Conv2D{In: in, Out: out, Kernel: kernel, Stride: stride, Pad: pad, Weights: w}
}

// OutputSize returns the spatial output size for an h x w input.
func (c *Conv2D) OutputSize(h, w int) (int, int) {
	oh := (h+2*c.Pad-c.Kernel)/c.Stride + 1
	ow := (w+2*c.Pad-c.Kernel)/c.Stride + 1
	return oh, ow
}

// Forward convolves a CHW input into dst, which must hold Out*oh*ow values.
func (c *Conv2D) Forward(src []float32, h, w int, dst []float32) {
	oh, ow := c.OutputSize(h, w)
	k := c.Kernel
	for o := range c.Out {
		out := dst[o*oh*ow : (o+1)*oh*ow]
		clear(out)
		for i := range c.In {
			plane := src[i*h*w : (i+1)*h*w]
			kw := c.Weights[(o*c.In+i)*k*k : (o*c.In+i+1)*k*k]
			for y := range oh {
				for x := range ow {
					var acc float32
					for ky := range k {
						sy := y*c.Stride + ky - c.Pad
						if sy < 0 || sy >= h {
							continue
						}
						row := plane[sy*w : (sy+1)*w]
						for kx := range k {
							sx := x*c.Stride + kx - c.Pad
							if sx < 0 || sx >= w {
								continue
							}
							acc += row[sx] * kw[ky*k+kx]
						}
					}
					out[y*ow+x] += acc
				}
			}
		}
	}
}

// CPU times a 3->16 channel 3x3 convolution over a random imgsz x imgsz
// input, a library-free throughput baseline.
func CPU(ctx context.Context, imgsz int, opts Options) (Summary, error) {
	conv := NewConv2D(3, 16, 3, 1, 1, 0)
	in := onnx.RandomImageTensor(3, imgsz, imgsz, 0)
	oh, ow := conv.OutputSize(imgsz, imgsz)
	out := make([]float32, conv.Out*oh*ow)

	return Measure(ctx, "cpu_conv3x3", opts, func() error {
		conv.Forward(in.Data, imgsz, imgsz, out)
		return nil
	})
}
