// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

// Package onnx provides a local sentence-embedding provider backed by ONNX
// Runtime. The runtime is a native shared library, so the provider is built
// only with the "onnx" tag; library discovery lives here so it compiles and
// tests everywhere.
package onnx

import (
	"os"
	"path/filepath"
	"runtime"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// runtimeLibEnv overrides shared-library discovery entirely.
const runtimeLibEnv = "RECALL_ONNX_LIB"

// runtimeVersions are probed in order under the managed install root when
// the environment variable is not set. Newest first.
var runtimeVersions = []string{"1.20.0", "1.19.2", "1.18.1"}

// ResolveRuntimeLibrary returns the path to the ONNX Runtime shared library.
// Order: RECALL_ONNX_LIB, then versioned directories under
// ~/.jasper/onnxruntime, then common system locations.
func ResolveRuntimeLibrary() (string, error) {
	if path := os.Getenv(runtimeLibEnv); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", recallerr.Errorf(recallerr.CodeEmbedRuntimeUnavailable,
				"%s points at %s but it does not exist", runtimeLibEnv, path)
		}
		return path, nil
	}

	for _, candidate := range candidatePaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", recallerr.New(recallerr.CodeEmbedRuntimeUnavailable,
		"ONNX Runtime shared library not found — install it or set "+runtimeLibEnv,
		recallerr.FieldProvider("onnx"),
	)
}

func candidatePaths() []string {
	lib := libraryName()

	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		root := filepath.Join(home, ".jasper", "onnxruntime")
		for _, version := range runtimeVersions {
			paths = append(paths, filepath.Join(root, version, lib))
		}
	}

	paths = append(paths,
		filepath.Join("/usr/local/lib", lib),
		filepath.Join("/usr/lib", lib),
	)
	return paths
}

func libraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
