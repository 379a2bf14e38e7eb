// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package store

import (
	"os"
	"sync"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// Options identifies one collection within an on-disk index.
type Options struct {
	// Dir is the index root directory.
	Dir string

	// Collection is the named partition holding indexed documents.
	Collection string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// Factory creates a backend store. When create is false the index and
// collection must already exist; opening must not leave anything on disk.
type Factory func(opts Options, create bool) (VectorStore, error)

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterBackend registers a factory for a named storage backend.
// Backend packages call this from init(). Goroutine-safe.
func RegisterBackend(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Open opens an existing collection for querying. The index directory and
// the collection must both exist already.
func Open(backend string, opts Options) (VectorStore, error) {
	f, err := lookup(backend)
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(opts.Dir); os.IsNotExist(statErr) {
		return nil, recallerr.New(recallerr.CodeStoreIndexNotFound,
			"no index found — run 'recall index' first",
			recallerr.Field("dir", opts.Dir),
		)
	}

	return f(opts, false)
}

// Create opens a collection for indexing, creating the index directory and
// the collection as needed.
func Create(backend string, opts Options) (VectorStore, error) {
	f, err := lookup(backend)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "creating index directory: %w", err)
	}

	return f(opts, true)
}

func lookup(backend string) (Factory, error) {
	factoriesMu.RLock()
	f, ok := factories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, recallerr.New(recallerr.CodeStoreBackendUnsupported,
			"unsupported storage backend",
			recallerr.FieldBackend(backend),
		)
	}
	return f, nil
}
