package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, nil, 0o600))
}

func TestGetModelsDir(t *testing.T) {
	assert.Equal(t, "/explicit", GetModelsDir("/explicit"))

	t.Setenv(EnvModelsDir, "/from/env")
	assert.Equal(t, "/from/env", GetModelsDir(""))
}

func TestGetModelsDir_ProjectRoot(t *testing.T) {
	t.Setenv(EnvModelsDir, "")
	dir := GetModelsDir("")
	assert.Equal(t, DefaultModelsDir, filepath.Base(dir))
}

func TestResolve_ExistingPath(t *testing.T) {
	p := filepath.Join(t.TempDir(), "m.onnx")
	touch(t, p)
	got, err := Resolve(p, "")
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestResolve_InModelsDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "best.onnx"))

	got, err := Resolve("best", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "best.onnx"), got)

	got, err = Resolve("best.onnx", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "best.onnx"), got)
}

func TestResolve_Missing(t *testing.T) {
	_, err := Resolve("ghost", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")

	_, err = Resolve("", "")
	assert.Error(t, err)
}
