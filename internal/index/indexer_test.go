// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/mock"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/index"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore collects added documents in memory.
type memStore struct {
	docs map[string]store.Document
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]store.Document{}}
}

func (m *memStore) Add(_ context.Context, docs []store.Document) error {
	for _, d := range docs {
		m.docs[d.ID] = d
	}
	return nil
}

func (m *memStore) Search(context.Context, []float32, int) ([]store.SearchResult, error) {
	return nil, nil
}

func (m *memStore) Delete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.docs, id)
	}
	return nil
}

func (m *memStore) Count(context.Context) (int, error) { return len(m.docs), nil }
func (m *memStore) Close() error                       { return nil }

func (m *memStore) bySource(source string) (store.Document, bool) {
	for _, d := range m.docs {
		if d.Metadata["source"] == source {
			return d, true
		}
	}
	return store.Document{}, false
}

func writeDigest(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIndexWalksDigests(t *testing.T) {
	root := t.TempDir()
	writeDigest(t, root, "shared/deploy.md", "Deploy with make release.")
	writeDigest(t, root, "personal/diary.md", "---\nvisibility: private\n---\nSecret thoughts.")
	writeDigest(t, root, "notes.txt", "not a digest")

	vs := newMemStore()
	ix := index.New(mock.New(8), vs)

	stats, err := ix.Index(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)
	assert.Equal(t, 0, stats.Skipped)

	doc, ok := vs.bySource("shared/deploy.md")
	require.True(t, ok)
	assert.Equal(t, "Deploy with make release.", doc.Content)
	assert.Equal(t, "private", doc.Metadata["visibility"])
	assert.Len(t, doc.Embedding, 8)
}

func TestIndexFrontmatterVisibilityAndTags(t *testing.T) {
	root := t.TempDir()
	writeDigest(t, root, "news.md", "---\nvisibility: public\ntags: [release, ops]\n---\nShipped v2.")

	vs := newMemStore()
	_, err := index.New(mock.New(8), vs).Index(context.Background(), root)
	require.NoError(t, err)

	doc, ok := vs.bySource("news.md")
	require.True(t, ok)
	assert.Equal(t, "public", doc.Metadata["visibility"])
	assert.Equal(t, "release,ops", doc.Metadata["tags"])
	assert.Equal(t, "Shipped v2.", doc.Content)
}

func TestIndexDeterministicIDs(t *testing.T) {
	root := t.TempDir()
	writeDigest(t, root, "shared/deploy.md", "first revision")

	vs := newMemStore()
	ix := index.New(mock.New(8), vs)

	_, err := ix.Index(context.Background(), root)
	require.NoError(t, err)

	// Re-index with changed content: same ID, updated document.
	writeDigest(t, root, "shared/deploy.md", "second revision")
	_, err = ix.Index(context.Background(), root)
	require.NoError(t, err)

	n, err := vs.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	doc, ok := vs.bySource("shared/deploy.md")
	require.True(t, ok)
	assert.Equal(t, "second revision", doc.Content)
}

func TestIndexSkipsBadDigests(t *testing.T) {
	root := t.TempDir()
	writeDigest(t, root, "empty.md", "   \n")
	writeDigest(t, root, "broken.md", "---\nvisibility: [unterminated")
	writeDigest(t, root, "good.md", "usable digest")

	vs := newMemStore()
	stats, err := index.New(mock.New(8), vs).Index(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Indexed)
	assert.Equal(t, 2, stats.Skipped)
}

func TestIndexMissingRoot(t *testing.T) {
	vs := newMemStore()
	_, err := index.New(mock.New(8), vs).Index(context.Background(), filepath.Join(t.TempDir(), "nope"))

	require.Error(t, err)
	assert.True(t, recallerr.HasCode(err, recallerr.CodeIndexWalkFailure))
}
