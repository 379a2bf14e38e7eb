// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

// Package index builds the vector index from a directory of markdown digest
// files. Each file becomes one document; visibility comes from optional YAML
// frontmatter and defaults to private.
package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// docNamespace seeds deterministic document IDs so re-indexing a digest
// upserts instead of duplicating it.
var docNamespace = uuid.MustParse("8e2f4bbe-7a31-5bc6-9c4f-21d56aa0f3d2")

// frontmatter is the optional YAML header of a digest file.
type frontmatter struct {
	Visibility string   `yaml:"visibility"`
	Tags       []string `yaml:"tags"`
}

// Stats summarises one indexing run.
type Stats struct {
	Indexed int
	Skipped int
}

// Indexer embeds digest files and upserts them into a vector store.
type Indexer struct {
	embedder embed.Embedder
	store    store.VectorStore
	logger   *slog.Logger
}

// New creates an Indexer.
func New(embedder embed.Embedder, vs store.VectorStore) *Indexer {
	return &Indexer{
		embedder: embedder,
		store:    vs,
		logger:   slog.Default(),
	}
}

// Index walks root for markdown files and upserts one document per file.
// The source metadata field is the path relative to root, so digests under
// a shared/ folder are recognised by the public-only filter. Files that fail
// to embed are logged and skipped; walk errors are fatal.
func (ix *Indexer) Index(ctx context.Context, root string) (Stats, error) {
	if _, err := os.Stat(root); err != nil {
		return Stats{}, recallerr.Wrapf(err, recallerr.CodeIndexWalkFailure, "reading digest directory %s", root)
	}

	var stats Stats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return recallerr.Wrapf(err, recallerr.CodeIndexWalkFailure, "walking %s", path)
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		source, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return recallerr.Wrapf(relErr, recallerr.CodeIndexWalkFailure, "resolving %s", path)
		}
		source = filepath.ToSlash(source)

		if indexErr := ix.indexFile(ctx, path, source); indexErr != nil {
			ix.logger.Warn("skipping digest", "source", source, "error", indexErr)
			stats.Skipped++
			return nil
		}

		stats.Indexed++
		return nil
	})
	if err != nil {
		return stats, err
	}

	return stats, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path, source string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return recallerr.Wrapf(err, recallerr.CodeIndexWalkFailure, "reading %s", path)
	}

	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return err
	}
	if strings.TrimSpace(body) == "" {
		return recallerr.New(recallerr.CodeIndexParseInvalid, "digest has no content", recallerr.FieldSource(source))
	}

	visibility := fm.Visibility
	if visibility == "" {
		visibility = "private"
	}

	embedding, err := ix.embedder.Embed(ctx, body)
	if err != nil {
		return err
	}

	metadata := map[string]string{
		"source":     source,
		"visibility": visibility,
	}
	if len(fm.Tags) > 0 {
		metadata["tags"] = strings.Join(fm.Tags, ",")
	}

	doc := store.Document{
		ID:        uuid.NewSHA1(docNamespace, []byte(source)).String(),
		Content:   body,
		Embedding: embedding,
		Metadata:  metadata,
	}

	return ix.store.Add(ctx, []store.Document{doc})
}

// splitFrontmatter separates an optional leading YAML header, delimited by
// "---" lines, from the document body.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter

	if !strings.HasPrefix(content, "---\n") {
		return fm, content, nil
	}

	rest := content[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return fm, "", recallerr.New(recallerr.CodeIndexParseInvalid, "unterminated frontmatter")
	}

	header := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", recallerr.Wrapf(err, recallerr.CodeIndexParseInvalid, "parsing frontmatter")
	}

	return fm, body, nil
}
