// Package session records analysis snapshots in the vector store and
// retrieves similar past sessions.
package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/summary"
	"github.com/Veraticus/autonomous-analyst/internal/vectorstore"
)

// DefaultSource tags sessions logged from the generated dataset.
const DefaultSource = "generated_data.csv"

// DefaultResults is how many sessions Search returns when n is not positive.
const DefaultResults = 3

// NoSessions is the single result of a search with nothing to return.
const NoSessions = "No relevant sessions found."

// Store is the subset of the vector store the logger needs.
type Store interface {
	Add(ctx context.Context, doc vectorstore.Document) error
	Query(ctx context.Context, text string, n int) ([]vectorstore.Match, error)
}

// Logger writes and searches session documents.
type Logger struct {
	store  Store
	logger *slog.Logger
	newID  func() string
	source string
}

// NewLogger returns a session logger tagging documents with source.
func NewLogger(store Store, source string, logger *slog.Logger) *Logger {
	if source == "" {
		source = DefaultSource
	}
	return &Logger{
		store:  store,
		source: source,
		logger: common.OrDefault(logger),
		newID:  func() string { return uuid.New().String() },
	}
}

// Document renders the session text for a detected dataset.
func Document(ds *dataset.Dataset) (string, error) {
	inliers, outliers, err := ds.LabelCounts()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session Summary:\nInliers: %d, Outliers: %d\n\nStats:\n%s",
		inliers, outliers, summary.Describe(ds).NumericTable()), nil
}

// Log stores a snapshot of ds and returns its ID. Undetected data is rejected
// with a user error and nothing is written.
func (l *Logger) Log(ctx context.Context, ds *dataset.Dataset) (string, error) {
	if !ds.Schema().Detected {
		return "", common.NewUserError(common.MsgLogNotAnalyzed, common.ErrNotAnalyzed)
	}
	text, err := Document(ds)
	if err != nil {
		return "", err
	}

	id := l.newID()
	if err := l.store.Add(ctx, vectorstore.Document{
		ID:       id,
		Content:  text,
		Metadata: map[string]string{"source": l.source},
	}); err != nil {
		return "", fmt.Errorf("failed to log session: %w", err)
	}

	l.logger.Info("Session logged", "id", id, "source", l.source)
	return id, nil
}

// Search returns the contents of the n sessions most similar to query. It
// never returns an empty slice: with no sessions the result is NoSessions.
func (l *Logger) Search(ctx context.Context, query string, n int) ([]string, error) {
	if n <= 0 {
		n = DefaultResults
	}

	matches, err := l.store.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to search sessions: %w", err)
	}
	if len(matches) == 0 {
		return []string{NoSessions}, nil
	}

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Content
	}
	return out, nil
}
