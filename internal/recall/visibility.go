// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package recall

import (
	"strings"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
)

// privateTag excludes a document from public-only results regardless of its
// metadata. Matched case-insensitively anywhere in the document text.
const privateTag = "[private]"

// Admissible reports whether a candidate may appear in public-only results:
// its source lives under a shared/ folder or its visibility is public, and
// its text does not carry the private tag.
func Admissible(r store.SearchResult) bool {
	isShared := strings.Contains(r.Metadata["source"], "shared/")
	isPublic := r.Metadata["visibility"] == "public"
	hasPrivateTag := strings.Contains(strings.ToLower(r.Content), privateTag)

	return (isShared || isPublic) && !hasPrivateTag
}

// FilterPublic walks candidates in rank order and keeps admissible ones
// until limit is reached. Remaining candidates are discarded unevaluated.
// A set shorter than limit is returned as-is; there is no backfill query.
func FilterPublic(results []store.SearchResult, limit int) []store.SearchResult {
	var kept []store.SearchResult
	for _, r := range results {
		if !Admissible(r) {
			continue
		}

		kept = append(kept, r)
		if len(kept) >= limit {
			break
		}
	}
	return kept
}
