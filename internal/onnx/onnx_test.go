package onnx

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/dscurate/internal/testutil"
)

func TestNewImageTensor(t *testing.T) {
	tt, err := NewImageTensor(make([]float32, 3*4*5), 3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 4, 5}, tt.Shape)

	_, err = NewImageTensor(make([]float32, 7), 3, 4, 5)
	require.Error(t, err)
	_, err = NewImageTensor(nil, 1, 1, 1)
	require.Error(t, err)
}

func TestRandomImageTensor(t *testing.T) {
	a := RandomImageTensor(3, 8, 8, 42)
	b := RandomImageTensor(3, 8, 8, 42)
	require.NoError(t, VerifyImageTensor(a))
	assert.Equal(t, a.Data, b.Data)
	assert.Len(t, a.Data, 192)
}

func TestVerifyImageTensor(t *testing.T) {
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 4), Shape: []int64{1, 2, 2}}))
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 4), Shape: []int64{1, 1, 0, 4}}))
	assert.Error(t, VerifyImageTensor(Tensor{Data: make([]float32, 3), Shape: []int64{1, 1, 2, 2}}))
}

func TestGPUConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultGPUConfig().Validate())

	c := DefaultGPUConfig()
	c.UseGPU = true
	assert.NoError(t, c.Validate())

	c.DeviceID = -1
	assert.Error(t, c.Validate())

	c = DefaultGPUConfig()
	c.UseGPU = true
	c.CUDNNConvAlgoSearch = "FAST"
	assert.Error(t, c.Validate())
}

func TestGPUConfig_ProviderSettings(t *testing.T) {
	c := GPUConfig{UseGPU: true, DeviceID: 1, GPUMemLimit: 1024}
	assert.Equal(t, map[string]string{"device_id": "1", "gpu_mem_limit": "1024"}, c.providerSettings())
}

func TestFindLibrary_Explicit(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "libonnxruntime.so")
	testutil.WriteFile(t, lib, "")

	got, err := FindLibrary(lib, false)
	require.NoError(t, err)
	assert.Equal(t, lib, got)

	_, err = FindLibrary(filepath.Join(t.TempDir(), "missing.so"), false)
	assert.Error(t, err)
}

func TestFindLibrary_Env(t *testing.T) {
	lib := filepath.Join(t.TempDir(), "custom.so")
	testutil.WriteFile(t, lib, "")
	t.Setenv(LibraryEnv, lib)

	got, err := FindLibrary("", false)
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}
