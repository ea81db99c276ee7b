package dataset

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

func newTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds := New()
	require.NoError(t, ds.SetNumeric(Feature1Column, []float64{1, 2, 3}))
	require.NoError(t, ds.SetNumeric(Feature2Column, []float64{4.5, 5.25, -6}))
	require.NoError(t, ds.SetCategorical(CategoryColumn, []string{"A", "B", "A"}))
	return ds
}

func TestSetRejectsLengthMismatch(t *testing.T) {
	ds := newTestDataset(t)

	err := ds.SetNumeric("short", []float64{1})
	assert.ErrorIs(t, err, common.ErrInvalidDataset)

	err = ds.SetCategorical("", []string{"a", "b", "c"})
	assert.ErrorIs(t, err, common.ErrInvalidDataset)
}

func TestSetReplacesColumnInPlace(t *testing.T) {
	ds := newTestDataset(t)
	require.NoError(t, ds.SetNumeric(Feature1Column, []float64{7, 8, 9}))

	assert.Len(t, ds.Columns(), 3)
	assert.Equal(t, Feature1Column, ds.Columns()[0].Name)
	vals, err := ds.Numeric(Feature1Column)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8, 9}, vals)
}

func TestNumericAndCategoricalAccessors(t *testing.T) {
	ds := newTestDataset(t)

	_, err := ds.Numeric("missing")
	assert.ErrorIs(t, err, common.ErrUnknownColumn)
	assert.ErrorIs(t, err, common.ErrInvalidDataset)

	_, err = ds.Numeric(CategoryColumn)
	assert.ErrorIs(t, err, common.ErrNonNumericColumn)

	_, err = ds.Categorical(Feature1Column)
	assert.ErrorIs(t, err, common.ErrInvalidDataset)

	cats, err := ds.Categorical(CategoryColumn)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "A"}, cats)
}

func TestDetectedAndLabelCounts(t *testing.T) {
	ds := newTestDataset(t)
	assert.False(t, ds.Detected())

	_, _, err := ds.LabelCounts()
	assert.ErrorIs(t, err, common.ErrNotAnalyzed)

	require.NoError(t, ds.SetNumeric(DistanceColumn, []float64{0.5, 0.7, 9}))
	require.NoError(t, ds.SetCategorical(LabelColumn, []string{"inlier", "inlier", "outlier"}))
	assert.True(t, ds.Detected())

	inliers, outliers, err := ds.LabelCounts()
	require.NoError(t, err)
	assert.Equal(t, 2, inliers)
	assert.Equal(t, 1, outliers)
}

func TestSchema(t *testing.T) {
	ds := newTestDataset(t)
	s := ds.Schema()

	assert.Equal(t, 3, s.Rows)
	assert.False(t, s.Detected)
	assert.Equal(t, []string{Feature1Column, Feature2Column}, s.NumericColumns())
	assert.Equal(t, []string{CategoryColumn}, s.CategoricalColumns())
	assert.True(t, s.Has(CategoryColumn, KindCategorical))
	assert.False(t, s.Has(CategoryColumn, KindNumeric))
	assert.Contains(t, s.String(), "rows=3")
}

func TestSchemaRequireNumeric(t *testing.T) {
	s := newTestDataset(t).Schema()

	require.NoError(t, s.RequireNumeric(Feature1Column, Feature2Column))
	require.NoError(t, s.RequireNumeric())

	err := s.RequireNumeric(Feature1Column, CategoryColumn)
	assert.ErrorIs(t, err, common.ErrInvalidDataset)
	assert.ErrorIs(t, err, common.ErrNonNumericColumn)

	err = s.RequireNumeric("missing")
	assert.ErrorIs(t, err, common.ErrUnknownColumn)
	assert.Contains(t, err.Error(), "missing")
}

func TestAppend(t *testing.T) {
	a := newTestDataset(t)
	b := newTestDataset(t)

	require.NoError(t, a.Append(b))
	assert.Equal(t, 6, a.Len())

	other := New()
	require.NoError(t, other.SetNumeric("x", []float64{1, 2, 3}))
	assert.ErrorIs(t, a.Append(other), common.ErrInvalidDataset)
}

func TestCSVRoundTrip(t *testing.T) {
	ds := newTestDataset(t)
	require.NoError(t, ds.SetNumeric(DistanceColumn, []float64{0.1234567890123456, 1e-7, 3.0000000000000004}))

	var buf bytes.Buffer
	require.NoError(t, ds.WriteCSV(&buf))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, ds.Schema(), got.Schema())

	for _, col := range ds.Columns() {
		gotCol, ok := got.Column(col.Name)
		require.True(t, ok)
		assert.Equal(t, col, gotCol)
	}
}

func TestReadCSVTypeInference(t *testing.T) {
	input := "a,b,c\n1,x,2\n3.5,y,oops\n"
	ds, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	s := ds.Schema()
	assert.True(t, s.Has("a", KindNumeric))
	assert.True(t, s.Has("b", KindCategorical))
	assert.True(t, s.Has("c", KindCategorical))
	assert.Equal(t, 2, ds.Len())
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "ragged", input: "a,b\n1,2\n3\n"},
		{name: "duplicate header", input: "a,a\n1,2\n"},
		{name: "blank header", input: "a,\n1,2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, common.ErrInvalidDataset)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, common.ErrNoDataset)
}

func TestSaveCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "data.csv")
	ds := newTestDataset(t)

	require.NoError(t, Save(path, ds))
	assert.FileExists(t, path)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ds.Schema(), loaded.Schema())
}
