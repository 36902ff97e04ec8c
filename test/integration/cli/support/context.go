// Package support holds the step definitions of the CLI feature tests.
package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand   string
	LastOutput    string
	LastError     error
	LastExitCode  int
	LastStartTime time.Time
	LastDuration  time.Duration

	// Test environment
	WorkingDir  string
	TempDir     string
	DatasetRoot string
	EnvVars     []string
}

// NewTestContext creates a scenario context with a fresh temporary folder
// and an empty dataset root inside it.
func NewTestContext() (*TestContext, error) {
	workingDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "dscurate-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	return &TestContext{
		WorkingDir:  workingDir,
		TempDir:     tempDir,
		DatasetRoot: filepath.Join(tempDir, "dataset"),
		// Keep config discovery away from the developer's home.
		EnvVars: []string{"HOME=" + tempDir, "XDG_CONFIG_HOME=" + tempDir},
	}, nil
}

// Cleanup removes the scenario's temporary folder.
func (testCtx *TestContext) Cleanup() error {
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// DatasetPath resolves a slash separated path under the dataset root.
func (testCtx *TestContext) DatasetPath(rel string) string {
	return filepath.Join(testCtx.DatasetRoot, filepath.FromSlash(rel))
}

// substituteCommandVariables expands {root} and {tmp} in a command line.
func (testCtx *TestContext) substituteCommandVariables(command string) string {
	return strings.NewReplacer(
		"{root}", testCtx.DatasetRoot,
		"{tmp}", testCtx.TempDir,
	).Replace(command)
}
