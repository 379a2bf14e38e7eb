// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

// Package recall implements the query pipeline: embed the query, fetch
// nearest neighbors from the vector store, and optionally post-filter them
// by visibility policy.
package recall

import (
	"context"
	"log/slog"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// DefaultOverfetch multiplies the requested limit when public-only filtering
// is active. The store's top-K search runs before the policy filter, so extra
// candidates compensate for expected attrition. A heuristic, not a guarantee:
// when fewer than limit candidates survive, the short set is returned as-is.
const DefaultOverfetch = 3

// Options controls a single search invocation.
type Options struct {
	// Limit is the maximum number of results to return.
	Limit int

	// PublicOnly restricts results to documents marked shared or public and
	// not tagged private.
	PublicOnly bool
}

// Searcher runs queries against a vector store using an embedding provider.
type Searcher struct {
	embedder  embed.Embedder
	store     store.VectorStore
	overfetch int
	logger    *slog.Logger
}

// NewSearcher creates a Searcher. An overfetch below 1 falls back to
// DefaultOverfetch.
func NewSearcher(embedder embed.Embedder, vs store.VectorStore, overfetch int) *Searcher {
	if overfetch < 1 {
		overfetch = DefaultOverfetch
	}
	return &Searcher{
		embedder:  embedder,
		store:     vs,
		overfetch: overfetch,
		logger:    slog.Default(),
	}
}

// Search embeds the query and returns at most opts.Limit candidates ordered
// by ascending distance. With PublicOnly set, candidates are fetched with the
// overfetch multiplier and filtered in rank order; the result is always a
// subsequence of the store's ranking.
func (s *Searcher) Search(ctx context.Context, query string, opts Options) ([]store.SearchResult, error) {
	if query == "" {
		return nil, recallerr.New(recallerr.CodeCLIInputInvalid, "query must not be empty")
	}
	if opts.Limit < 1 {
		return nil, recallerr.Errorf(recallerr.CodeCLIInputInvalid, "limit must be at least 1, got %d", opts.Limit)
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	fetch := opts.Limit
	if opts.PublicOnly {
		fetch = opts.Limit * s.overfetch
	}

	s.logger.Debug("querying vector store",
		"limit", opts.Limit,
		"fetch", fetch,
		"public_only", opts.PublicOnly,
	)

	results, err := s.store.Search(ctx, embedding, fetch)
	if err != nil {
		return nil, err
	}

	if opts.PublicOnly {
		return FilterPublic(results, opts.Limit), nil
	}

	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}
