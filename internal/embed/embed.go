// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

// Package embed defines the embedding provider contract used by the query
// pipeline and the index builder.
package embed

import "context"

// Embedder converts text to a fixed-length vector for similarity search.
// Implementations: openai (API), onnx (local model), mock (testing).
type Embedder interface {
	// Embed converts a single text to its embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// HealthChecker is implemented by embedders that can verify upstream
// availability without producing an embedding. Used by 'recall doctor'.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
