package benchmark

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer(t *testing.T) {
	timer := NewTimer("test")
	time.Sleep(5 * time.Millisecond)
	d := timer.Stop()
	assert.GreaterOrEqual(t, d, 5*time.Millisecond)
	assert.Equal(t, d, timer.Duration())
	assert.Contains(t, timer.String(), "test:")
}

func TestGetMemoryStats(t *testing.T) {
	m := GetMemoryStats()
	assert.Positive(t, m.SysBytes)
	assert.Contains(t, m.String(), "Alloc:")
}

func ms(v ...float64) []time.Duration {
	out := make([]time.Duration, len(v))
	for i, x := range v {
		out[i] = time.Duration(x * float64(time.Millisecond))
	}
	return out
}

func TestSummarize(t *testing.T) {
	var samples []float64
	for i := 1; i <= 20; i++ {
		samples = append(samples, float64(i))
	}
	s, err := Summarize(ms(samples...))
	require.NoError(t, err)
	assert.Equal(t, 20, s.Runs)
	assert.InDelta(t, 10.5, s.MeanMs, 1e-9)
	// int(0.95*20)-1 = 18 -> 19ms
	assert.InDelta(t, 19.0, s.P95Ms, 1e-9)
	assert.InDelta(t, 1000/10.5, s.FPS, 1e-9)
}

func TestSummarize_Unsorted(t *testing.T) {
	s, err := Summarize(ms(5, 1, 3, 2, 4))
	require.NoError(t, err)
	// int(4.75)-1 = 3 -> 4ms
	assert.InDelta(t, 4.0, s.P95Ms, 1e-9)
}

func TestSummarize_Single(t *testing.T) {
	s, err := Summarize(ms(7))
	require.NoError(t, err)
	assert.InDelta(t, 7.0, s.P95Ms, 1e-9)
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestMeasure_Counts(t *testing.T) {
	calls := 0
	s, err := Measure(context.Background(), "count", Options{Warmup: 3, Runs: 7}, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 10, calls)
	assert.Equal(t, 7, s.Runs)
	assert.Equal(t, "count", s.Name)
}

func TestMeasure_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := Measure(context.Background(), "x", Options{Runs: 2}, func() error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = Measure(context.Background(), "x", Options{}, func() error { return nil })
	assert.ErrorIs(t, err, ErrNoRuns)
}

func TestMeasure_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Measure(ctx, "x", DefaultOptions(), func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConv2D_OutputSize(t *testing.T) {
	c := NewConv2D(3, 16, 3, 1, 1, 0)
	oh, ow := c.OutputSize(32, 24)
	assert.Equal(t, 32, oh)
	assert.Equal(t, 24, ow)

	c = NewConv2D(3, 16, 3, 2, 0, 0)
	oh, ow = c.OutputSize(9, 9)
	assert.Equal(t, 4, oh)
	assert.Equal(t, 4, ow)
}

func TestConv2D_Forward(t *testing.T) {
	c := &Conv2D{In: 1, Out: 1, Kernel: 3, Stride: 1, Pad: 1, Weights: []float32{
		0, 0, 0,
		0, 1, 0,
		0, 0, 0,
	}}
	src := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9}
	dst := make([]float32, 9)
	c.Forward(src, 3, 3, dst)
	assert.Equal(t, src, dst)

	// Box filter: the corner sees four of the nine inputs.
	c.Weights = []float32{1, 1, 1, 1, 1, 1, 1, 1, 1}
	c.Forward(src, 3, 3, dst)
	assert.InDelta(t, 1+2+4+5, dst[0], 1e-6)
	assert.InDelta(t, 45, dst[4], 1e-6)
}

func TestCPU(t *testing.T) {
	s, err := CPU(context.Background(), 16, Options{Warmup: 1, Runs: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, s.Runs)
	assert.Positive(t, s.FPS)
}

func TestONNX_InvalidSize(t *testing.T) {
	_, err := ONNX(context.Background(), ONNXOptions{Options: DefaultOptions()})
	assert.Error(t, err)
}
