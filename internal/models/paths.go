// Package models locates exported detector models for benchmarking.
package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultModelsDir is the models folder under the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models folder.
const EnvModelsDir = "DSCURATE_MODELS_DIR"

// Detector exports, in the order Resolve tries bare names without extension.
var exportExtensions = []string{".onnx", ".ort"}

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("could not find project root (go.mod not found)")
		}
		dir = parent
	}
}

// GetModelsDir returns modelsDir, else EnvModelsDir, else <project>/models,
// else the relative "models".
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// Resolve turns a model argument into an existing file. A path that exists
// is returned as is. Otherwise the name is looked up in the models folder,
// and a name without extension also tries the known export extensions, so
// "best" finds models/best.onnx.
func Resolve(name, modelsDir string) (string, error) {
	if name == "" {
		return "", errors.New("model name is empty")
	}
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	base := GetModelsDir(modelsDir)
	candidates := []string{filepath.Join(base, name)}
	if filepath.Ext(name) == "" {
		for _, ext := range exportExtensions {
			candidates = append(candidates, filepath.Join(base, name+ext))
		}
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("model file not found: %s (looked in %s)", name, strings.Join(candidates, ", "))
}
