package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/MeKo-Tech/dscurate/internal/onnx"
)

// ONNXOptions configures an ONNX Runtime latency run.
type ONNXOptions struct {
	Options
	Session onnx.SessionConfig
	ImgSize int
}

// ONNX times session runs of the model over one random 1x3xImgSize x ImgSize input.
func ONNX(ctx context.Context, opts ONNXOptions) (Summary, error) {
	if opts.ImgSize <= 0 {
		return Summary{}, fmt.Errorf("invalid image size %d", opts.ImgSize)
	}
	sess, err := onnx.NewSession(opts.Session)
	if err != nil {
		return Summary{}, fmt.Errorf("open model %s: %w", opts.Session.ModelPath, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			slog.Warn("Failed to close session", "error", err)
		}
	}()

	slog.Debug("Model opened", "model", opts.Session.ModelPath, "input", sess.Input.Name,
		"gpu", opts.Session.GPU.UseGPU)

	input := onnx.RandomImageTensor(3, opts.ImgSize, opts.ImgSize, 0)
	return Measure(ctx, filepath.Base(opts.Session.ModelPath), opts.Options, func() error {
		return sess.Run(input)
	})
}
