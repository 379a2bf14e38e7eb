//go:build !onnx

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package onnx

import (
	"context"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// Config configures the local embedder. Mirrors the onnx-tagged build so
// callers compile either way.
type Config struct {
	ModelPath     string
	TokenizerPath string
	Dimensions    int
}

// Embedder is a placeholder in builds without the onnx tag.
type Embedder struct {
	dimensions int
}

// New reports the provider as unavailable in builds without the onnx tag.
func New(Config) (*Embedder, error) {
	return nil, recallerr.New(recallerr.CodeEmbedRuntimeUnavailable,
		"onnx embedding support not compiled in — rebuild with -tags onnx",
		recallerr.FieldProvider("onnx"),
	)
}

func (e *Embedder) Embed(context.Context, string) ([]float32, error) {
	return nil, recallerr.New(recallerr.CodeEmbedRuntimeUnavailable, "onnx embedding support not compiled in")
}

func (e *Embedder) Dimensions() int { return e.dimensions }

func (e *Embedder) Close() error { return nil }
