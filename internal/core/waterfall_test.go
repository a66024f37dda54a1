package core

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waterfallTensor() *AttributionTensor {
	tensor := NewAttributionTensor(2, 1, 4)
	for j, v := range []float64{0.1, -0.3, 0.05, 0.2} {
		tensor.Set(1, 0, j, v)
	}
	return tensor
}

func TestBuildWaterfallOrdersByMagnitude(t *testing.T) {
	labels := []string{"Age = 30", "Debt = 900", "Loans = 2", "Income = 4000"}
	w, err := BuildWaterfall(waterfallTensor(), 0, 1, BaselineValues{0.4, 0.5}, labels, 0)
	require.NoError(t, err)

	require.Len(t, w.Steps, 4)
	assert.Equal(t, "Debt = 900", w.Steps[0].Label)
	assert.Equal(t, "Income = 4000", w.Steps[1].Label)
	assert.Equal(t, "Age = 30", w.Steps[2].Label)
	assert.Equal(t, "Loans = 2", w.Steps[3].Label)

	assert.InDelta(t, 0.5, w.Steps[0].Start, 1e-12)
	assert.InDelta(t, 0.2, w.Steps[0].End, 1e-12)
	for k := 1; k < len(w.Steps); k++ {
		assert.Equal(t, w.Steps[k-1].End, w.Steps[k].Start)
	}
	assert.InDelta(t, 0.55, w.Prediction, 1e-12)
}

func TestBuildWaterfallGroupsRemainder(t *testing.T) {
	w, err := BuildWaterfall(waterfallTensor(), 0, 1, BaselineValues{0.4, 0.5}, nil, 3)
	require.NoError(t, err)

	require.Len(t, w.Steps, 3)
	assert.Equal(t, "feature 1", w.Steps[0].Label)
	assert.Equal(t, "feature 3", w.Steps[1].Label)
	last := w.Steps[2]
	assert.True(t, last.Grouped)
	assert.Equal(t, "2 other features", last.Label)
	assert.InDelta(t, 0.15, last.Contribution, 1e-12)
	assert.InDelta(t, 0.55, w.Prediction, 1e-12)
}

func TestBuildWaterfallRespectsMaxDisplay(t *testing.T) {
	for _, maxDisplay := range []int{1, 2, 3, 4, 10} {
		w, err := BuildWaterfall(waterfallTensor(), 0, 1, BaselineValues{0.4, 0.5}, nil, maxDisplay)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(w.Steps), maxDisplay, "max display %d", maxDisplay)
		assert.InDelta(t, 0.55, w.Prediction, 1e-12)
	}

	w, err := BuildWaterfall(waterfallTensor(), 0, 1, BaselineValues{0.4, 0.5}, nil, 1)
	require.NoError(t, err)
	require.Len(t, w.Steps, 1)
	assert.True(t, w.Steps[0].Grouped)
	assert.Equal(t, "4 other features", w.Steps[0].Label)
	assert.InDelta(t, 0.05, w.Steps[0].Contribution, 1e-12)
}

func TestBuildWaterfallRejectsBadIndices(t *testing.T) {
	tensor := waterfallTensor()
	baseline := BaselineValues{0.4, 0.5}

	_, err := BuildWaterfall(tensor, 1, 0, baseline, nil, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = BuildWaterfall(tensor, -1, 0, baseline, nil, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	_, err = BuildWaterfall(tensor, 0, 2, baseline, nil, 0)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))

	_, err = BuildWaterfall(tensor, 0, 0, BaselineValues{0.4}, nil, 0)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = BuildWaterfall(tensor, 0, 0, baseline, []string{"only one"}, 0)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
