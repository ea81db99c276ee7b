package plot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/outlier"
)

func detected(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.NewGeneratorWithSeed(11).Generate(300)
	require.NoError(t, err)
	_, err = outlier.Detect(ds, outlier.DefaultFeatures, outlier.DefaultThreshold)
	require.NoError(t, err)
	return ds
}

func TestScatterWritesPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "static", "nested", "plot.png")

	got, err := Scatter(detected(t), dataset.Feature1Column, dataset.Feature2Column, path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG\r\n\x1a\n"), data[:8])
}

func TestScatterAllInliers(t *testing.T) {
	ds := detected(t)
	_, err := outlier.Detect(ds, outlier.DefaultFeatures, 1e6)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plot.png")
	_, err = Scatter(ds, dataset.Feature1Column, dataset.Feature2Column, path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestScatterRequiresDetection(t *testing.T) {
	ds, err := dataset.NewGeneratorWithSeed(11).Generate(10)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "plot.png")
	_, err = Scatter(ds, dataset.Feature1Column, dataset.Feature2Column, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrNotAnalyzed)

	_, isUser := common.UserMessage(err)
	assert.True(t, isUser)
	assert.NoFileExists(t, path)
}

func TestScatterUnknownColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.png")
	_, err := Scatter(detected(t), "feature_9", dataset.Feature2Column, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownColumn)
}
