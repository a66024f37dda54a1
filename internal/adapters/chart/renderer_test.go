package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func sampleTensor() *core.AttributionTensor {
	tensor := core.NewAttributionTensor(3, 2, 4)
	values := [][]float64{{0.1, -0.3, 0.05, 0.2}, {-0.2, 0.1, 0.0, 0.05}}
	for c := 0; c < 3; c++ {
		for i, row := range values {
			for j, v := range row {
				tensor.Set(c, i, j, v*float64(c+1))
			}
		}
	}
	return tensor
}

var (
	sampleFeatures = []string{"Age", "Outstanding_Debt", "Num_of_Loan", "Annual_Income"}
	sampleClasses  = []string{"Poor", "Standard", "Good"}
)

func newTestRenderer(t *testing.T, format string) *Renderer {
	t.Helper()
	r, err := NewRenderer(format, 6, 4, 3)
	require.NoError(t, err)
	return r
}

func TestRenderSummaryWritesPNG(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "nested", "plots", "summary.png")

	path, err := newTestRenderer(t, "png").RenderSummary(sampleTensor(), sampleFeatures, sampleClasses, dest)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(path))
	assert.Equal(t, dest, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestRenderSummaryNameMismatch(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "summary.png")
	_, err := newTestRenderer(t, "png").RenderSummary(sampleTensor(), sampleFeatures[:2], sampleClasses, dest)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
	assert.NoFileExists(t, dest)
}

func TestRenderWaterfallWritesSVG(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "waterfall_instance0_Poor")
	labels := core.WaterfallLabels{
		FeatureLabels: []string{"Age = 23", "Outstanding_Debt = 809.98", "Num_of_Loan = 4", "Annual_Income = 19114.12"},
		ClassName:     "Poor",
	}

	path, err := newTestRenderer(t, "svg").RenderWaterfall(sampleTensor(), 0, 0, core.BaselineValues{0.3, 0.5, 0.2}, dest, labels)
	require.NoError(t, err)
	assert.Equal(t, dest+".svg", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
	assert.Contains(t, string(data), "Outstanding_Debt")
}

func TestRenderWaterfallOutOfRangeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "waterfall.png")
	r := newTestRenderer(t, "png")
	baseline := core.BaselineValues{0.3, 0.5, 0.2}

	_, err := r.RenderWaterfall(sampleTensor(), 2, 0, baseline, dest, core.WaterfallLabels{})
	assert.True(t, errors.Is(err, core.ErrIndexOutOfRange))

	_, err = r.RenderWaterfall(sampleTensor(), 0, 3, baseline, dest, core.WaterfallLabels{})
	assert.True(t, errors.Is(err, core.ErrIndexOutOfRange))

	assert.NoFileExists(t, dest)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderReplacesExistingFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "summary.png")
	require.NoError(t, os.WriteFile(dest, []byte("stale"), 0o644))

	_, err := newTestRenderer(t, "png").RenderSummary(sampleTensor(), sampleFeatures, sampleClasses, dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestNewRendererValidates(t *testing.T) {
	_, err := NewRenderer("bmp", 6, 4, 10)
	assert.Error(t, err)

	_, err = NewRenderer("png", 0, 4, 10)
	assert.Error(t, err)

	r, err := NewRenderer("pdf", 6, 4, 10)
	require.NoError(t, err)
	assert.Equal(t, "pdf", r.Extension())
}
