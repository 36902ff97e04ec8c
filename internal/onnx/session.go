package onnx

import (
	"errors"
	"fmt"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// SessionConfig configures a model session.
type SessionConfig struct {
	ModelPath   string
	LibraryPath string
	NumThreads  int
	GPU         GPUConfig
}

// Session runs a single-input model.
type Session struct {
	sess   *onnxrt.DynamicAdvancedSession
	Input  onnxrt.InputOutputInfo
	Output []onnxrt.InputOutputInfo
}

// NewSession initializes the runtime if needed and opens cfg.ModelPath.
func NewSession(cfg SessionConfig) (*Session, error) {
	if err := cfg.GPU.Validate(); err != nil {
		return nil, err
	}
	if err := Initialize(cfg.LibraryPath, cfg.GPU.UseGPU); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("io info: %w", err)
	}
	if len(inputs) != 1 || len(outputs) == 0 {
		return nil, fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs))
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session opts: %w", err)
	}
	defer func() { _ = opts.Destroy() }()

	if cfg.NumThreads > 0 {
		if err := opts.SetIntraOpNumThreads(cfg.NumThreads); err != nil {
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}
	if err := configureGPU(opts, cfg.GPU); err != nil {
		return nil, err
	}

	outNames := make([]string, len(outputs))
	for i, o := range outputs {
		outNames[i] = o.Name
	}
	sess, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath, []string{inputs[0].Name}, outNames, opts)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	return &Session{sess: sess, Input: inputs[0], Output: outputs}, nil
}

// Run feeds t through the model and discards the outputs.
func (s *Session) Run(t Tensor) error {
	if err := VerifyImageTensor(t); err != nil {
		return err
	}
	in, err := onnxrt.NewTensor(onnxrt.NewShape(t.Shape...), t.Data)
	if err != nil {
		return fmt.Errorf("input tensor: %w", err)
	}
	defer func() { _ = in.Destroy() }()

	outs := make([]onnxrt.Value, len(s.Output))
	if err := s.sess.Run([]onnxrt.Value{in}, outs); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	var errs []error
	for _, o := range outs {
		if o != nil {
			errs = append(errs, o.Destroy())
		}
	}
	return errors.Join(errs...)
}

// Close releases the session.
func (s *Session) Close() error {
	if s == nil || s.sess == nil {
		return nil
	}
	return s.sess.Destroy()
}
