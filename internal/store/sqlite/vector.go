// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Jasper Recall Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/internal/store"
	recallerr "github.com/E-x-O-Entertainment-Studios-Inc/jasper-recall/pkg/errors"
)

func init() {
	sqlite_vec.Auto()
	store.RegisterBackend("sqlite", func(opts store.Options, create bool) (store.VectorStore, error) {
		return New(opts, create)
	})
}

// Compile-time interface check.
var _ store.VectorStore = (*VectorStore)(nil)

// VectorStore implements store.VectorStore backed by SQLite with sqlite-vec.
// Each collection lives in its own database file under the index directory.
type VectorStore struct {
	db *sql.DB
}

// New opens a collection database. When create is false the database file
// must already exist; a missing file means the collection was never indexed.
func New(opts store.Options, create bool) (*VectorStore, error) {
	dbPath := filepath.Join(opts.Dir, opts.Collection+".db")

	if !create {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, recallerr.New(recallerr.CodeStoreCollectionNotFound,
				"collection not found — run 'recall index' first",
				recallerr.FieldCollection(opts.Collection),
			)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "pinging sqlite db: %w", err)
	}

	if create {
		if err := migrate(db, opts.Dimensions); err != nil {
			_ = db.Close()
			return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "migrating vector tables: %w", err)
		}
	} else if err := checkMigrated(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &VectorStore{db: db}, nil
}

func migrate(db *sql.DB, dimensions int) error {
	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vectors USING vec0(id TEXT PRIMARY KEY, embedding float[%d])`,
		dimensions,
	)
	if _, err := db.Exec(vecDDL); err != nil {
		return fmt.Errorf("creating vectors virtual table: %w", err)
	}

	const docDDL = `
CREATE TABLE IF NOT EXISTS documents (
	id       TEXT PRIMARY KEY,
	content  TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}'
)`
	if _, err := db.Exec(docDDL); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}

	return nil
}

// checkMigrated verifies the vectors table exists in a pre-built database.
func checkMigrated(db *sql.DB) error {
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type IN ('table','view') AND name = 'vectors'`).Scan(&name)
	if err == sql.ErrNoRows {
		return recallerr.New(recallerr.CodeStoreCollectionNotFound,
			"collection database has no vectors table — run 'recall index' first")
	}
	if err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "inspecting collection schema: %w", err)
	}
	return nil
}

// Add upserts documents with their embeddings and metadata.
func (v *VectorStore) Add(ctx context.Context, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, doc := range docs {
		if doc.ID == "" {
			return recallerr.New(recallerr.CodeStoreInvalidInput, "document id must not be empty")
		}

		blob, err := sqlite_vec.SerializeFloat32(doc.Embedding)
		if err != nil {
			return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "serializing embedding for %s: %w", doc.ID, err)
		}

		metaJSON := []byte("{}")
		if len(doc.Metadata) > 0 {
			metaJSON, err = json.Marshal(doc.Metadata)
			if err != nil {
				return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "marshalling metadata for %s: %w", doc.ID, err)
			}
		}

		// vec0 does not support ON CONFLICT; delete first for upsert.
		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, doc.ID); err != nil {
			return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "deleting existing vector %s: %w", doc.ID, err)
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO vectors(id, embedding) VALUES (?, ?)`, doc.ID, blob); err != nil {
			return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "inserting vector %s: %w", doc.ID, err)
		}

		const docQ = `INSERT INTO documents(id, content, metadata) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET content = excluded.content, metadata = excluded.metadata`
		if _, err := tx.ExecContext(ctx, docQ, doc.ID, doc.Content, string(metaJSON)); err != nil {
			return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "upserting document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "committing document batch: %w", err)
	}
	return nil
}

// Search performs a k-nearest-neighbor search and returns results with
// document text and metadata, ordered by ascending distance.
func (v *VectorStore) Search(ctx context.Context, embedding []float32, k int) ([]store.SearchResult, error) {
	if k < 1 {
		return nil, recallerr.Errorf(recallerr.CodeStoreInvalidInput, "k must be at least 1, got %d", k)
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "serializing query vector: %w", err)
	}

	const q = `SELECT v.id, v.distance, COALESCE(d.content, ''), COALESCE(d.metadata, '{}')
FROM vectors v
LEFT JOIN documents d ON d.id = v.id
WHERE v.embedding MATCH ? AND k = ?
ORDER BY v.distance`

	rows, err := v.db.QueryContext(ctx, q, blob, k)
	if err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "searching vectors: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []store.SearchResult
	for rows.Next() {
		var r store.SearchResult
		var metaStr string

		if err := rows.Scan(&r.ID, &r.Distance, &r.Content, &metaStr); err != nil {
			return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "scanning search result: %w", err)
		}

		if metaStr != "" && metaStr != "{}" {
			if err := json.Unmarshal([]byte(metaStr), &r.Metadata); err != nil {
				return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "unmarshalling metadata for %s: %w", r.ID, err)
			}
		}

		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "iterating search results: %w", err)
	}

	return results, nil
}

// Delete removes documents and their vectors by ID.
func (v *VectorStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := v.db.BeginTx(ctx, nil)
	if err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "deleting vectors: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "committing delete: %w", err)
	}
	return nil
}

// Count returns the number of indexed documents.
func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, recallerr.Errorf(recallerr.CodeStoreDatabaseFailure, "counting documents: %w", err)
	}
	return n, nil
}

// Close closes the underlying database connection.
func (v *VectorStore) Close() error {
	return v.db.Close()
}
