// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package main

import (
	"io"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/config"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/mock"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/onnx"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/openai"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/index"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/recall"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"

	// Register the store backends named by index.backend.
	_ "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store/chromem"
	_ "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store/sqlite"
)

// newEmbedder builds the embedding provider named by the config.
func newEmbedder(cfg *config.Config) (embed.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai":
		return openai.New(openai.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "onnx":
		return onnx.New(onnx.Config{
			ModelPath:     cfg.Embedding.ModelPath,
			TokenizerPath: cfg.Embedding.TokenizerPath,
			Dimensions:    cfg.Embedding.Dimensions,
		})
	case "mock":
		return mock.New(cfg.Embedding.Dimensions), nil
	default:
		return nil, recallerr.Errorf(recallerr.CodeEmbedProviderUnsupported,
			"unsupported embedding provider %q", cfg.Embedding.Provider)
	}
}

func storeOptions(cfg *config.Config) store.Options {
	return store.Options{
		Dir:        cfg.Index.Dir,
		Collection: cfg.Index.Collection,
		Dimensions: cfg.Embedding.Dimensions,
	}
}

// wireSearcher assembles the query pipeline: embedder, existing index, and
// the searcher on top. The returned cleanup closes both ends.
func wireSearcher(cfg *config.Config) (*recall.Searcher, func(), error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	vs, err := store.Open(cfg.Index.Backend, storeOptions(cfg))
	if err != nil {
		closeQuietly(embedder)
		return nil, nil, err
	}

	cleanup := func() {
		_ = vs.Close()
		closeQuietly(embedder)
	}
	return recall.NewSearcher(embedder, vs, cfg.Search.Overfetch), cleanup, nil
}

// wireIndexer assembles the build pipeline, creating the index if needed.
func wireIndexer(cfg *config.Config) (*index.Indexer, func(), error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	vs, err := store.Create(cfg.Index.Backend, storeOptions(cfg))
	if err != nil {
		closeQuietly(embedder)
		return nil, nil, err
	}

	cleanup := func() {
		_ = vs.Close()
		closeQuietly(embedder)
	}
	return index.New(embedder, vs), cleanup, nil
}

// closeQuietly closes embedders that hold resources (the onnx session does).
func closeQuietly(e embed.Embedder) {
	if c, ok := e.(io.Closer); ok {
		_ = c.Close()
	}
}
