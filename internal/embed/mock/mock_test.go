// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package mock_test

import (
	"context"
	"math"
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/embed/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedDeterministic(t *testing.T) {
	ctx := context.Background()
	e := mock.New(64)

	a, err := e.Embed(ctx, "deploy process")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "deploy process")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestEmbedDistinctTexts(t *testing.T) {
	ctx := context.Background()
	e := mock.New(64)

	a, err := e.Embed(ctx, "deploy process")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "lunch menu")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestEmbedUnitNorm(t *testing.T) {
	ctx := context.Background()
	e := mock.New(128)

	vec, err := e.Embed(ctx, "some digest text")
	require.NoError(t, err)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-4)
}

func TestDimensionsDefault(t *testing.T) {
	assert.Equal(t, 384, mock.New(0).Dimensions())
	assert.Equal(t, 12, mock.New(12).Dimensions())
}
