// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package chromem

import (
	"context"

	chromem "github.com/philippgille/chromem-go"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

func init() {
	store.RegisterBackend("chromem", func(opts store.Options, create bool) (store.VectorStore, error) {
		return New(opts, create)
	})
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore implements store.VectorStore backed by chromem-go, a pure Go
// embedded vector database persisted under the index directory.
type VectorStore struct {
	db  *chromem.DB
	col *chromem.Collection
}

// New opens a collection in a persistent chromem database. When create is
// false the collection must already exist.
func New(opts store.Options, create bool) (*VectorStore, error) {
	db, err := chromem.NewPersistentDB(opts.Dir, false)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "opening chromem db: %w", err)
	}

	var col *chromem.Collection
	if create {
		col, err = db.GetOrCreateCollection(opts.Collection, nil, nil)
		if err != nil {
			return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "creating collection: %w", err)
		}
	} else {
		col = db.GetCollection(opts.Collection, nil)
		if col == nil {
			return nil, recallerr.New(recallerr.CodeStoreCollectionNotFound,
				"collection not found — run 'recall index' first",
				recallerr.FieldCollection(opts.Collection),
			)
		}
	}

	return &VectorStore{db: db, col: col}, nil
}

// Add upserts documents with their embeddings and metadata.
func (v *VectorStore) Add(ctx context.Context, docs []store.Document) error {
	for _, doc := range docs {
		if doc.ID == "" {
			return recallerr.New(recallerr.CodeStoreInvalidInput, "document id must not be empty")
		}

		err := v.col.AddDocument(ctx, chromem.Document{
			ID:        doc.ID,
			Content:   doc.Content,
			Embedding: doc.Embedding,
			Metadata:  doc.Metadata,
		})
		if err != nil {
			return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "adding document %s: %w", doc.ID, err)
		}
	}
	return nil
}

// Search performs a nearest-neighbor search. chromem reports cosine
// similarity, so the distance is derived as 1 - similarity to keep the
// ascending-distance ordering contract.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, k int) ([]store.SearchResult, error) {
	if k < 1 {
		return nil, recallerr.Errorf(recallerr.CodeStoreInvalidInput, "k must be at least 1, got %d", k)
	}

	// chromem rejects nResults larger than the collection.
	if count := v.col.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	hits, err := v.col.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "querying collection: %w", err)
	}

	results := make([]store.SearchResult, len(hits))
	for i, hit := range hits {
		results[i] = store.SearchResult{
			ID:       hit.ID,
			Content:  hit.Content,
			Distance: 1 - float64(hit.Similarity),
			Metadata: hit.Metadata,
		}
	}
	return results, nil
}

// Delete removes documents by ID.
func (v *VectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := v.col.Delete(ctx, nil, nil, ids...); err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "deleting documents: %w", err)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (v *VectorStore) Count(_ context.Context) (int, error) {
	return v.col.Count(), nil
}

// Close releases resources. chromem persists on write, so there is nothing
// to flush here.
func (v *VectorStore) Close() error {
	return nil
}
