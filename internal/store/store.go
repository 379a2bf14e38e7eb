// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package store

import "context"

// Document is one indexed digest with its embedding and insert-time metadata.
// Metadata carries at least "source" (path relative to the digest root) and
// "visibility" ("public" or "private").
type Document struct {
	ID        string
	Content   string
	Embedding []float32
	Metadata  map[string]string
}

// SearchResult is one nearest-neighbor hit. Distance is non-negative and
// smaller means more similar.
type SearchResult struct {
	ID       string
	Content  string
	Distance float64
	Metadata map[string]string
}

// VectorStore is a persistent nearest-neighbor index over documents.
// Search results are ordered by ascending distance; callers must not
// re-sort them.
type VectorStore interface {
	// Add upserts documents with their embeddings.
	Add(ctx context.Context, docs []Document) error

	// Search returns up to k results nearest to the query embedding.
	Search(ctx context.Context, embedding []float32, k int) ([]SearchResult, error)

	// Delete removes documents by ID.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}
