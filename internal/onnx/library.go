// Package onnx wraps ONNX Runtime for timing exported detector models on
// the CPU, optionally through the CUDA execution provider.
package onnx

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"
)

// LibraryEnv names the environment variable that overrides library discovery.
const LibraryEnv = "ONNXRUNTIME_LIB_PATH"

// LibraryName returns the runtime library file name for the current OS.
func LibraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}
}

func systemLibraryPaths(useGPU bool) []string {
	if useGPU {
		return []string{
			"/opt/onnxruntime/gpu/lib/libonnxruntime.so",
			"/usr/local/lib/libonnxruntime.so",
			"/usr/lib/libonnxruntime.so",
			"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
		}
	}
	return []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
}

// FindLibrary locates the ONNX Runtime shared library. An explicit path
// wins, then LibraryEnv, then the usual system locations, then an
// onnxruntime/lib folder next to the working directory or one of its parents.
func FindLibrary(explicit string, useGPU bool) (string, error) {
	for _, p := range []string{explicit, os.Getenv(LibraryEnv)} {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err != nil {
			return "", fmt.Errorf("ONNX Runtime library not found at %s: %w", p, err)
		}
		return p, nil
	}

	for _, p := range systemLibraryPaths(useGPU) {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	name, err := LibraryName()
	if err != nil {
		return "", err
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	for {
		candidates := []string{filepath.Join(dir, "onnxruntime", "lib", name)}
		if useGPU {
			candidates = append([]string{filepath.Join(dir, "onnxruntime", "gpu", "lib", name)}, candidates...)
		}
		for _, p := range candidates {
			if _, err := os.Stat(p); err == nil {
				return p, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("ONNX Runtime library not found; set " + LibraryEnv)
		}
		dir = parent
	}
}

// Initialize points the bindings at the library and starts the runtime
// environment once per process.
func Initialize(libPath string, useGPU bool) error {
	if onnxrt.IsInitialized() {
		return nil
	}
	path, err := FindLibrary(libPath, useGPU)
	if err != nil {
		return err
	}
	onnxrt.SetSharedLibraryPath(path)
	if err := onnxrt.InitializeEnvironment(); err != nil {
		return fmt.Errorf("init onnx runtime: %w", err)
	}
	return nil
}

// Shutdown releases the runtime environment.
func Shutdown() error {
	if !onnxrt.IsInitialized() {
		return nil
	}
	return onnxrt.DestroyEnvironment()
}
