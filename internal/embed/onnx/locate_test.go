// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package onnx_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/onnx"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRuntimeLibraryFromEnv(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "libonnxruntime.so")
	require.NoError(t, os.WriteFile(lib, []byte("elf"), 0o644))

	t.Setenv("RECALL_ONNX_LIB", lib)

	got, err := onnx.ResolveRuntimeLibrary()
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}

func TestResolveRuntimeLibraryEnvPointsNowhere(t *testing.T) {
	t.Setenv("RECALL_ONNX_LIB", filepath.Join(t.TempDir(), "missing.so"))

	_, err := onnx.ResolveRuntimeLibrary()
	require.Error(t, err)
	assert.True(t, recallerr.HasCode(err, recallerr.CodeEmbedRuntimeUnavailable))
}

func TestResolveRuntimeLibraryProbesVersionedDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECALL_ONNX_LIB", "")

	// Install under an older runtime version; probing should still find it.
	libDir := filepath.Join(home, ".jasper", "onnxruntime", "1.19.2")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	lib := filepath.Join(libDir, "libonnxruntime.so")
	require.NoError(t, os.WriteFile(lib, []byte("elf"), 0o644))

	got, err := onnx.ResolveRuntimeLibrary()
	require.NoError(t, err)
	assert.Equal(t, lib, got)
}

func TestResolveRuntimeLibraryPrefersNewerVersion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("RECALL_ONNX_LIB", "")

	for _, version := range []string{"1.19.2", "1.20.0"} {
		libDir := filepath.Join(home, ".jasper", "onnxruntime", version)
		require.NoError(t, os.MkdirAll(libDir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(libDir, "libonnxruntime.so"), []byte("elf"), 0o644))
	}

	got, err := onnx.ResolveRuntimeLibrary()
	require.NoError(t, err)
	assert.Contains(t, got, "1.20.0")
}
