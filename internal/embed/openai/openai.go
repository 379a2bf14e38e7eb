// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package openai

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

// Embedder produces embeddings through an OpenAI-compatible embeddings API.
type Embedder struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// Config holds the embedding provider settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// New creates an OpenAI-compatible embedding provider. The API key must be
// present before any query work starts.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, recallerr.New(recallerr.CodeEmbedRuntimeUnavailable,
			"missing OpenAI API key — set embedding.api_key or run 'recall secret set openai-api-key'",
			recallerr.FieldProvider("openai"),
		)
	}
	if cfg.Model == "" {
		return nil, recallerr.New(recallerr.CodeEmbedProviderUnsupported,
			"embedding.model must be set for the openai provider")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Embedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed converts a single text to its embedding vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input:          []string{text},
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, parseAPIError(err)
	}

	if len(resp.Data) == 0 {
		return nil, recallerr.New(recallerr.CodeEmbedResponseInvalid,
			"empty embedding response",
			recallerr.FieldProvider("openai"),
		)
	}

	return resp.Data[0].Embedding, nil
}

// Dimensions returns the configured embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return recallerr.Wrapf(err, recallerr.CodeEmbedRequestFailure, "listing models")
	}
	return nil
}

// parseAPIError extracts a readable message from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return recallerr.Errorf(recallerr.CodeEmbedRequestFailure,
			"embedding API error %d: %s", reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return recallerr.Errorf(recallerr.CodeEmbedRequestFailure,
			"embedding API error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	return recallerr.Wrapf(err, recallerr.CodeEmbedRequestFailure, "embedding request failed")
}
