package core

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateRanksByMeanAbsoluteAttribution(t *testing.T) {
	tensor := NewAttributionTensor(2, 2, 3)
	// class 0: |.| means are a=1.5, b=0.5, c=2
	tensor.Set(0, 0, 0, 1)
	tensor.Set(0, 1, 0, -2)
	tensor.Set(0, 0, 1, 0.5)
	tensor.Set(0, 1, 1, -0.5)
	tensor.Set(0, 0, 2, 4)
	// class 1: a=0, b=1, c=0
	tensor.Set(1, 0, 1, 1)
	tensor.Set(1, 1, 1, -1)

	ranking, err := NewSummaryAggregator().Aggregate(tensor, []string{"a", "b", "c"}, []string{"Poor", "Good"})
	require.NoError(t, err)

	want := []FeatureImportance{
		{Feature: "c", Index: 2, Score: 2},
		{Feature: "a", Index: 0, Score: 1.5},
		{Feature: "b", Index: 1, Score: 0.5},
	}
	if diff := cmp.Diff(want, ranking.PerClass[0].Features); diff != "" {
		t.Errorf("class 0 ranking mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Good", ranking.PerClass[1].Class)
	assert.Equal(t, "b", ranking.PerClass[1].Features[0].Feature)

	// overall: a=0.75, b=0.75, c=1; the tie keeps column order
	overall := ranking.Overall
	require.Len(t, overall, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{overall[0].Feature, overall[1].Feature, overall[2].Feature})
	assert.InDelta(t, 1.0, overall[0].Score, 1e-12)
	assert.InDelta(t, 0.75, overall[1].Score, 1e-12)

	top := ranking.Top(1)
	require.Len(t, top, 1)
	assert.Equal(t, "c", top[0].Feature)
	assert.Len(t, ranking.Top(0), 3)
}

func TestAggregateZeroInstances(t *testing.T) {
	tensor := NewAttributionTensor(1, 0, 2)
	ranking, err := NewSummaryAggregator().Aggregate(tensor, []string{"x", "y"}, []string{"only"})
	require.NoError(t, err)
	assert.Equal(t, []FeatureImportance{
		{Feature: "x", Index: 0, Score: 0},
		{Feature: "y", Index: 1, Score: 0},
	}, ranking.Overall)
}

func TestAggregateNameMismatch(t *testing.T) {
	tensor := NewAttributionTensor(2, 1, 2)
	_, err := NewSummaryAggregator().Aggregate(tensor, []string{"x"}, []string{"a", "b"})
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = NewSummaryAggregator().Aggregate(tensor, []string{"x", "y"}, []string{"a"})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
