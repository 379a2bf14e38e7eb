// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package recall_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/recall"
	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0.1, 0.9},
		{0.2, 0.8},
		{0.0, 1.0},
		{1.0, 0.0},
		{0.1234, 0.877},
		{0.12349, 0.877},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, recall.Similarity(tt.distance), 1e-9, "distance %v", tt.distance)
	}
}

func TestWriteJSON(t *testing.T) {
	results := []store.SearchResult{
		{Distance: 0.1, Content: "first doc", Metadata: map[string]string{"source": "shared/a.md"}},
		{Distance: 0.2, Content: "second doc", Metadata: map[string]string{"source": "shared/b.md"}},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{}.WriteJSON(&buf, results))

	var entries []struct {
		Rank       int     `json:"rank"`
		Source     string  `json:"source"`
		Similarity float64 `json:"similarity"`
		Content    string  `json:"content"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 2)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "shared/a.md", entries[0].Source)
	assert.InDelta(t, 0.9, entries[0].Similarity, 1e-9)
	assert.Equal(t, "first doc", entries[0].Content)

	assert.Equal(t, 2, entries[1].Rank)
	assert.InDelta(t, 0.8, entries[1].Similarity, 1e-9)
}

func TestWriteJSONMissingSource(t *testing.T) {
	results := []store.SearchResult{
		{Distance: 0.3, Content: "orphan doc"},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{}.WriteJSON(&buf, results))
	assert.Contains(t, buf.String(), `"source": "unknown"`)
}

func TestWriteJSONEmptyResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{}.WriteJSON(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestWriteJSONContentNotTruncated(t *testing.T) {
	long := strings.Repeat("x", 2000)
	results := []store.SearchResult{
		{Distance: 0.1, Content: long, Metadata: map[string]string{"source": "shared/long.md"}},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{Truncate: 500}.WriteJSON(&buf, results))

	var entries []struct {
		Content string `json:"content"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Content, 2000)
}

func TestWriteHuman(t *testing.T) {
	results := []store.SearchResult{
		{Distance: 0.1, Content: "deploy with make release", Metadata: map[string]string{"source": "shared/deploy.md"}},
		{Distance: 0.25, Content: "rollback notes"},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{}.WriteHuman(&buf, "deploy process", results))
	out := buf.String()

	assert.Contains(t, out, `🔍 Results for: "deploy process"`)
	assert.Contains(t, out, "━━━ [1] shared/deploy.md ━━━")
	assert.Contains(t, out, "deploy with make release")
	assert.Contains(t, out, "━━━ [2] unknown ━━━")
	// Similarity only shows up in verbose mode.
	assert.NotContains(t, out, "%")
}

func TestWriteHumanVerboseScore(t *testing.T) {
	results := []store.SearchResult{
		{Distance: 0.1, Content: "doc", Metadata: map[string]string{"source": "shared/a.md"}},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{Verbose: true}.WriteHuman(&buf, "q", results))
	assert.Contains(t, buf.String(), "━━━ [1] shared/a.md (90.0%) ━━━")
}

func TestWriteHumanTruncatesLongContent(t *testing.T) {
	long := strings.Repeat("a", 501)
	results := []store.SearchResult{
		{Distance: 0.1, Content: long, Metadata: map[string]string{"source": "shared/long.md"}},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{Truncate: 500}.WriteHuman(&buf, "q", results))

	assert.Contains(t, buf.String(), strings.Repeat("a", 500)+"...")
	assert.NotContains(t, buf.String(), strings.Repeat("a", 501))
}

func TestWriteHumanShortContentUnmodified(t *testing.T) {
	exact := strings.Repeat("b", 500)
	results := []store.SearchResult{
		{Distance: 0.1, Content: exact, Metadata: map[string]string{"source": "shared/x.md"}},
	}

	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{Truncate: 500}.WriteHuman(&buf, "q", results))

	assert.Contains(t, buf.String(), exact+"\n")
	assert.NotContains(t, buf.String(), "...")
}

func TestWriteHumanNoResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, recall.Formatter{}.WriteHuman(&buf, "deploy process", nil))
	assert.Equal(t, "🔍 No results for: \"deploy process\"\n", buf.String())
}
