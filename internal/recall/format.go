// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package recall

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
)

// DefaultTruncate is the character budget for document text in
// human-readable output.
const DefaultTruncate = 500

// Formatter renders a result set as JSON or a human-readable report.
type Formatter struct {
	// Verbose adds a similarity percentage to each human-readable entry.
	Verbose bool

	// Truncate caps document text length in human-readable output; zero or
	// negative means DefaultTruncate. JSON output is never truncated.
	Truncate int
}

// resultEntry is the JSON shape of one result.
type resultEntry struct {
	Rank       int     `json:"rank"`
	Source     string  `json:"source"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// Similarity converts a distance to the display score, 1 - distance rounded
// to three decimal places.
func Similarity(distance float64) float64 {
	return math.Round((1-distance)*1000) / 1000
}

// WriteJSON emits the results as an indented JSON array. An empty result set
// produces an empty array literal.
func (f Formatter) WriteJSON(w io.Writer, results []store.SearchResult) error {
	entries := make([]resultEntry, len(results))
	for i, r := range results {
		entries[i] = resultEntry{
			Rank:       i + 1,
			Source:     sourceOf(r),
			Similarity: Similarity(r.Distance),
			Content:    r.Content,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(data))
	return err
}

// WriteHuman emits a human-readable report naming the query, with one
// separator-framed block per result.
func (f Formatter) WriteHuman(w io.Writer, query string, results []store.SearchResult) error {
	if len(results) == 0 {
		_, err := fmt.Fprintf(w, "🔍 No results for: %q\n", query)
		return err
	}

	if _, err := fmt.Fprintf(w, "🔍 Results for: %q\n\n", query); err != nil {
		return err
	}

	truncate := f.Truncate
	if truncate <= 0 {
		truncate = DefaultTruncate
	}

	for i, r := range results {
		score := ""
		if f.Verbose {
			score = fmt.Sprintf(" (%.1f%%)", (1-r.Distance)*100)
		}

		if _, err := fmt.Fprintf(w, "━━━ [%d] %s%s ━━━\n", i+1, sourceOf(r), score); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, truncateText(r.Content, truncate)); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	return nil
}

// sourceOf returns the source metadata field, or "unknown" when absent.
func sourceOf(r store.SearchResult) string {
	if src, ok := r.Metadata["source"]; ok && src != "" {
		return src
	}
	return "unknown"
}

// truncateText cuts text to at most limit characters (runes, not bytes) and
// marks the cut with an ellipsis.
func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
