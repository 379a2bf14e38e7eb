// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
	"github.com/spf13/viper"
)

// Config is the top-level recall configuration.
type Config struct {
	Index     IndexConfig     `mapstructure:"index"`
	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Search    SearchConfig    `mapstructure:"search"`
}

// IndexConfig locates the pre-built vector index.
type IndexConfig struct {
	Dir        string `mapstructure:"dir"`
	Collection string `mapstructure:"collection"`
	Backend    string `mapstructure:"backend"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`

	// ModelPath and TokenizerPath locate the local model files for the
	// onnx provider. Ignored by the remote providers.
	ModelPath     string `mapstructure:"model_path"`
	TokenizerPath string `mapstructure:"tokenizer_path"`
}

// SearchConfig tunes the query pipeline.
type SearchConfig struct {
	// Overfetch multiplies the requested limit when public-only filtering
	// is active, to compensate for attrition in the post-filter.
	Overfetch int `mapstructure:"overfetch"`

	// Truncate is the character budget for document text in human-readable
	// output. Longer documents are cut and marked with an ellipsis.
	Truncate int `mapstructure:"truncate"`
}

// SetDefaults installs default values on a Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("index.dir", defaultIndexDir())
	v.SetDefault("index.collection", "jasper_memory")
	v.SetDefault("index.backend", "sqlite")
	v.SetDefault("embedding.provider", "openai")
	v.SetDefault("embedding.model", "text-embedding-3-small")
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("embedding.model_path", filepath.Join(defaultModelDir(), "model.onnx"))
	v.SetDefault("embedding.tokenizer_path", filepath.Join(defaultModelDir(), "tokenizer.json"))
	v.SetDefault("search.overfetch", 3)
	v.SetDefault("search.truncate", 500)
}

// SetupEnv binds environment variables with the RECALL_ prefix, so for
// example RECALL_INDEX_DIR overrides index.dir.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("RECALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// FromViper unmarshals and validates a Config from a prepared Viper.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix RECALL_).
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, recallerr.Errorf(recallerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateIndex()...)
	errs = append(errs, c.validateEmbedding()...)
	errs = append(errs, c.validateSearch()...)

	return errs
}

func (c *Config) validateIndex() []error {
	var errs []error

	if c.Index.Dir == "" {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue, "config: index.dir must not be empty"))
	}

	if c.Index.Collection == "" {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue, "config: index.collection must not be empty"))
	}

	validBackends := map[string]bool{"sqlite": true, "chromem": true}
	if !validBackends[c.Index.Backend] {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: index.backend must be one of [sqlite, chromem], got %q",
			c.Index.Backend,
		))
	}

	return errs
}

func (c *Config) validateEmbedding() []error {
	var errs []error

	validProviders := map[string]bool{"openai": true, "onnx": true, "mock": true}
	if !validProviders[c.Embedding.Provider] {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: embedding.provider must be one of [openai, onnx, mock], got %q",
			c.Embedding.Provider,
		))
	}

	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: embedding.dimensions must be greater than 0, got %d",
			c.Embedding.Dimensions,
		))
	}

	if c.Embedding.Provider == "openai" && c.Embedding.Model == "" {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: embedding.model must not be empty for the openai provider"))
	}

	return errs
}

func (c *Config) validateSearch() []error {
	var errs []error

	if c.Search.Overfetch < 1 {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: search.overfetch must be at least 1, got %d",
			c.Search.Overfetch,
		))
	}

	if c.Search.Truncate <= 0 {
		errs = append(errs, recallerr.Errorf(recallerr.CodeConfigValidateInvalidValue,
			"config: search.truncate must be greater than 0, got %d",
			c.Search.Truncate,
		))
	}

	return errs
}

// defaultIndexDir returns the default location of the on-disk index.
func defaultIndexDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".jasper", "index")
	}
	return filepath.Join(home, ".jasper", "index")
}

// defaultModelDir returns the default location of local embedding models.
func defaultModelDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".jasper", "models", "all-MiniLM-L6-v2")
	}
	return filepath.Join(home, ".jasper", "models", "all-MiniLM-L6-v2")
}
