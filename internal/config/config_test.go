// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/config"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "jasper_memory", cfg.Index.Collection)
	assert.Equal(t, "sqlite", cfg.Index.Backend)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, 384, cfg.Embedding.Dimensions)
	assert.Equal(t, 3, cfg.Search.Overfetch)
	assert.Equal(t, 500, cfg.Search.Truncate)
	assert.NotEmpty(t, cfg.Index.Dir)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recall.yaml")
	content := `
index:
  dir: /var/lib/jasper/index
  collection: team_memory
  backend: chromem
embedding:
  provider: mock
  dimensions: 128
search:
  overfetch: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/jasper/index", cfg.Index.Dir)
	assert.Equal(t, "team_memory", cfg.Index.Collection)
	assert.Equal(t, "chromem", cfg.Index.Backend)
	assert.Equal(t, "mock", cfg.Embedding.Provider)
	assert.Equal(t, 128, cfg.Embedding.Dimensions)
	assert.Equal(t, 5, cfg.Search.Overfetch)
	// Unset keys keep their defaults.
	assert.Equal(t, 500, cfg.Search.Truncate)
}

func TestLoadMissingFileFails(t *testing.T) {
	_, err := config.Load("/nonexistent/recall.yaml")
	require.Error(t, err)
	assert.Equal(t, recallerr.CodeConfigLoadReadFailure, recallerr.CodeOf(err))
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("RECALL_INDEX_DIR", "/tmp/env-index")
	t.Setenv("RECALL_INDEX_COLLECTION", "env_memory")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-index", cfg.Index.Dir)
	assert.Equal(t, "env_memory", cfg.Index.Collection)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &config.Config{
		Index: config.IndexConfig{
			Dir:        "",
			Collection: "",
			Backend:    "postgres",
		},
		Embedding: config.EmbeddingConfig{
			Provider:   "cohere",
			Dimensions: 0,
		},
		Search: config.SearchConfig{
			Overfetch: 0,
			Truncate:  -1,
		},
	}

	errs := cfg.Validate()
	assert.Len(t, errs, 7)
	for _, err := range errs {
		assert.Equal(t, recallerr.CodeConfigValidateInvalidValue, recallerr.CodeOf(err))
	}
}

func TestValidateInvalidBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "recall.yaml")
	require.NoError(t, os.WriteFile(path, []byte("index:\n  backend: redis\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.Equal(t, recallerr.CodeConfigValidateInvalidValue, recallerr.CodeOf(err))
	assert.Contains(t, err.Error(), "index.backend")
}

func TestValidateOpenAIRequiresModel(t *testing.T) {
	cfg := &config.Config{
		Index:     config.IndexConfig{Dir: "/idx", Collection: "c", Backend: "sqlite"},
		Embedding: config.EmbeddingConfig{Provider: "openai", Model: "", Dimensions: 384},
		Search:    config.SearchConfig{Overfetch: 3, Truncate: 500},
	}

	errs := cfg.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "embedding.model")
}

func TestValidateMockNeedsNoModel(t *testing.T) {
	cfg := &config.Config{
		Index:     config.IndexConfig{Dir: "/idx", Collection: "c", Backend: "sqlite"},
		Embedding: config.EmbeddingConfig{Provider: "mock", Dimensions: 384},
		Search:    config.SearchConfig{Overfetch: 3, Truncate: 500},
	}

	assert.Empty(t, cfg.Validate())
}
