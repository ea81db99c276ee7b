package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Document is a stored text with free-form string metadata.
type Document struct {
	CreatedAt time.Time
	Metadata  map[string]string
	ID        string
	Content   string
}

// Match is a document ranked against a query.
type Match struct {
	Document
	Score float64
}

// Add embeds and stores doc. Reusing an ID fails with common.ErrDuplicateEntry.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: document ID is required", common.ErrInvalidConfig)
	}
	if doc.Content == "" {
		return fmt.Errorf("%w: document content is required", common.ErrInvalidConfig)
	}

	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed document: %w", err)
	}

	meta := doc.Metadata
	if meta == nil {
		meta = map[string]string{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	createdAt := doc.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, collection, content, metadata, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		doc.ID, s.collection, doc.Content, string(metaJSON), encodeVector(vec), createdAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: document %s", common.ErrDuplicateEntry, doc.ID)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}

	s.logger.Debug("stored document",
		"collection", s.collection,
		"id", doc.ID,
		"dimensions", len(vec))
	return nil
}

// Get returns the document with the given ID.
func (s *Store) Get(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, content, metadata, created_at FROM documents WHERE collection = ? AND id = ?`,
		s.collection, id)

	var doc Document
	var meta string
	if err := row.Scan(&doc.ID, &doc.Content, &meta, &doc.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: document %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if err := json.Unmarshal([]byte(meta), &doc.Metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &doc, nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, s.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

// Query ranks every document in the collection by cosine similarity to text
// and returns at most n matches, best first. n <= 0 returns all of them.
// Documents whose embedding width differs from the query's are skipped.
func (s *Store) Query(ctx context.Context, text string, n int) ([]Match, error) {
	query, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, content, metadata, embedding, created_at FROM documents WHERE collection = ?`,
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []Match
	for rows.Next() {
		var m Match
		var meta string
		var blob []byte
		if err := rows.Scan(&m.ID, &m.Content, &meta, &blob, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}

		vec, err := decodeVector(blob)
		if err != nil {
			return nil, fmt.Errorf("document %s: %w", m.ID, err)
		}
		if len(vec) != len(query) {
			s.logger.Debug("skipping document with different embedding width",
				"id", m.ID, "width", len(vec), "query_width", len(query))
			continue
		}
		if err := json.Unmarshal([]byte(meta), &m.Metadata); err != nil {
			return nil, fmt.Errorf("failed to parse metadata of %s: %w", m.ID, err)
		}

		m.Score = cosine(query, vec)
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})

	if n > 0 && len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}
