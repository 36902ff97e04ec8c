// Package benchmark measures inference latency for exported detectors
// and for a pure-Go convolution baseline.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Defaults for Measure.
const (
	DefaultWarmup = 50
	DefaultRuns   = 200
)

// ErrNoRuns is returned when a summary is requested over zero samples.
var ErrNoRuns = errors.New("no timed runs")

// Timer provides simple timing utilities for benchmarking.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new timer with the given name.
func NewTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

func (t *Timer) String() string {
	return fmt.Sprintf("%s: %v", t.name, t.duration)
}

// MemoryStats holds memory usage statistics.
type MemoryStats struct {
	AllocBytes      uint64
	TotalAllocBytes uint64
	SysBytes        uint64
	NumGC           uint32
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		AllocBytes:      m.Alloc,
		TotalAllocBytes: m.TotalAlloc,
		SysBytes:        m.Sys,
		NumGC:           m.NumGC,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d",
		m.AllocBytes/1024, m.TotalAllocBytes/1024, m.SysBytes/1024, m.NumGC)
}

// Summary holds latency statistics over the timed runs.
type Summary struct {
	Name   string
	Runs   int
	MeanMs float64
	P95Ms  float64
	FPS    float64
	Memory MemoryStats
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: runs=%d mean=%.2fms p95=%.2fms fps=%.2f",
		s.Name, s.Runs, s.MeanMs, s.P95Ms, s.FPS)
}

// Summarize computes mean, p95 and throughput over the given latencies.
// p95 is the element at index int(0.95*n)-1 of the sorted samples, clamped
// to the first element for tiny sample counts.
func Summarize(times []time.Duration) (Summary, error) {
	if len(times) == 0 {
		return Summary{}, ErrNoRuns
	}
	ms := make([]float64, len(times))
	for i, d := range times {
		ms[i] = float64(d) / float64(time.Millisecond)
	}
	mean := stat.Mean(ms, nil)

	sorted := slices.Clone(ms)
	slices.Sort(sorted)
	idx := max(int(0.95*float64(len(sorted)))-1, 0)

	s := Summary{Runs: len(times), MeanMs: mean, P95Ms: sorted[idx]}
	if mean > 0 {
		s.FPS = 1000 / mean
	}
	return s, nil
}

// Options controls a measurement loop.
type Options struct {
	Warmup int
	Runs   int
}

// DefaultOptions returns 50 warm-up and 200 timed runs.
func DefaultOptions() Options {
	return Options{Warmup: DefaultWarmup, Runs: DefaultRuns}
}

// Measure calls fn Warmup times untimed, then Runs times timed, and
// summarizes the timed latencies.
func Measure(ctx context.Context, name string, opts Options, fn func() error) (Summary, error) {
	if opts.Runs <= 0 {
		return Summary{}, ErrNoRuns
	}
	for range opts.Warmup {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		if err := fn(); err != nil {
			return Summary{}, fmt.Errorf("warm-up: %w", err)
		}
	}

	runtime.GC()
	times := make([]time.Duration, 0, opts.Runs)
	for range opts.Runs {
		if err := ctx.Err(); err != nil {
			return Summary{}, err
		}
		timer := NewTimer(name)
		if err := fn(); err != nil {
			return Summary{}, fmt.Errorf("run %d: %w", len(times)+1, err)
		}
		times = append(times, timer.Stop())
	}

	s, err := Summarize(times)
	if err != nil {
		return Summary{}, err
	}
	s.Name = name
	s.Memory = GetMemoryStats()
	return s, nil
}
