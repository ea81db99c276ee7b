package vectorstore

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "logs.db"), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMigrates(t *testing.T) {
	store := setupStore(t)

	var version int
	require.NoError(t, store.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, ExpectedSchemaVersion, version)
	assert.Equal(t, DefaultCollection, store.Collection())
}

func TestOpenIsReentrant(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs.db")

	first, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, Document{ID: "a", Content: "persisted session"}))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path, Options{})
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Add(ctx, Document{
		ID:       "doc-1",
		Content:  "Inliers: 100, Outliers: 20",
		Metadata: map[string]string{"source": "generated_data.csv"},
	}))

	doc, err := store.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Inliers: 100, Outliers: 20", doc.Content)
	assert.Equal(t, map[string]string{"source": "generated_data.csv"}, doc.Metadata)
	assert.WithinDuration(t, time.Now(), doc.CreatedAt, time.Minute)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestAddDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.Add(ctx, Document{ID: "same", Content: "one"}))
	err := store.Add(ctx, Document{ID: "same", Content: "two"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAddValidation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.Error(t, store.Add(ctx, Document{Content: "no id"}))
	require.Error(t, store.Add(ctx, Document{ID: "x"}))
}

func TestQueryRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	docs := []Document{
		{ID: "outliers", Content: "many outliers detected far from the mean"},
		{ID: "weather", Content: "sunny weather with light wind"},
		{ID: "mixed", Content: "outliers and weather"},
	}
	for _, d := range docs {
		require.NoError(t, store.Add(ctx, d))
	}

	matches, err := store.Query(ctx, "outliers detected", 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "outliers", matches[0].ID)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)

	all, err := store.Query(ctx, "outliers detected", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "weather", all[2].ID)
}

func TestQueryEmptyStore(t *testing.T) {
	matches, err := setupStore(t).Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "logs.db")

	a, err := Open(ctx, path, Options{Collection: "a"})
	require.NoError(t, err)
	require.NoError(t, a.Add(ctx, Document{ID: "1", Content: "alpha"}))
	require.NoError(t, a.Close())

	b, err := Open(ctx, path, Options{Collection: "b"})
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	n, err := b.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("embedding service down")
}

func TestEmbedderFailure(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, filepath.Join(t.TempDir(), "logs.db"), Options{Embedder: failingEmbedder{}})
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	err = store.Add(ctx, Document{ID: "1", Content: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "embedding service down")

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHashEmbedder(t *testing.T) {
	ctx := context.Background()
	e := NewHashEmbedder(64)

	a, err := e.Embed(ctx, "Outliers detected: 20")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "outliers DETECTED 20")
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.InDeltaSlice(t, a, b, 1e-12)

	var sumSq float64
	for _, v := range a {
		sumSq += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-9)

	zero, err := e.Embed(ctx, "  ,;  ")
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 64), zero)
	assert.Zero(t, cosine(zero, a))
}

func TestVectorCodec(t *testing.T) {
	vec := []float64{0, -1.5, math.Pi, 1e-300}
	got, err := decodeVector(encodeVector(vec))
	require.NoError(t, err)
	assert.Equal(t, vec, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
