// Package vectorstore persists text documents with embeddings in SQLite and
// ranks them by cosine similarity to a query.
package vectorstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/autonomous-analyst/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DefaultCollection holds analysis session logs.
const DefaultCollection = "analysis_logs"

// Embedder turns text into a vector. llm.Service and HashEmbedder both
// satisfy it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Store is a single collection backed by a SQLite database.
type Store struct {
	db         *sql.DB
	embedder   Embedder
	logger     *slog.Logger
	collection string
	dbPath     string
}

// Options configures Open.
type Options struct {
	Embedder   Embedder
	Logger     *slog.Logger
	Collection string
}

// Open creates or opens the database at dbPath and applies migrations.
func Open(ctx context.Context, dbPath string, opts Options) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("%w: store path is required", common.ErrMissingConfig)
	}
	if opts.Embedder == nil {
		opts.Embedder = NewHashEmbedder(DefaultDimensions)
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		db:         db,
		embedder:   opts.Embedder,
		logger:     common.OrDefault(opts.Logger),
		collection: opts.Collection,
		dbPath:     dbPath,
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Collection returns the collection name.
func (s *Store) Collection() string {
	return s.collection
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
