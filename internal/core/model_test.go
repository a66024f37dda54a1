package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFeatureMatrixValidates(t *testing.T) {
	_, err := NewFeatureMatrix([]string{"a", "a"}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	_, err = NewFeatureMatrix([]string{"a", "b"}, [][]float64{{1, 2}, {3}})
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	m, err := NewFeatureMatrix([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Head(2).NumRows())
	assert.Same(t, m, m.Head(0))
	assert.Equal(t, [][]float64{{5, 6}, {1, 2}}, m.Subset([]int{2, 0}).Rows)
}

func TestTensorShapeJSON(t *testing.T) {
	data, err := json.Marshal(TensorShape{Classes: 3, Instances: 10, Features: 5})
	require.NoError(t, err)
	assert.JSONEq(t, `[3, 10, 5]`, string(data))

	var shape TensorShape
	require.NoError(t, json.Unmarshal([]byte(`[2, 0, 4]`), &shape))
	assert.Equal(t, TensorShape{Classes: 2, Instances: 0, Features: 4}, shape)
	assert.Equal(t, "(2, 0, 4)", shape.String())

	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &shape))
}

func TestAttributionTensorInstanceAliases(t *testing.T) {
	tensor := NewAttributionTensor(2, 2, 2)
	copy(tensor.Instance(1, 0), []float64{0.5, -0.25})
	assert.Equal(t, 0.5, tensor.At(1, 0, 0))
	assert.Equal(t, 0.25, tensor.Sum(1, 0))
	assert.Equal(t, 0.0, tensor.Sum(0, 1))

	other := NewAttributionTensor(2, 2, 2)
	assert.False(t, tensor.Equal(other))
	other.Set(1, 0, 0, 0.5)
	other.Set(1, 0, 1, -0.25)
	assert.True(t, tensor.Equal(other))
	assert.False(t, tensor.Equal(NewAttributionTensor(2, 2, 3)))
}

func TestCategoryEncoderDecode(t *testing.T) {
	enc := &CategoryEncoder{Column: "Occupation", Categories: []string{"Doctor", "Lawyer"}}
	name, ok := enc.Decode(1)
	assert.True(t, ok)
	assert.Equal(t, "Lawyer", name)

	for _, v := range []float64{-1, 2, 0.5} {
		_, ok := enc.Decode(v)
		assert.False(t, ok, "value %v", v)
	}
}

func TestNewExplanationReportCopiesContents(t *testing.T) {
	contents := ReportContents{
		RunID:         "run-1",
		GeneratedAt:   time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Shape:         TensorShape{Classes: 3, Instances: 1, Features: 2},
		Baseline:      BaselineValues{0.2, 0.5, 0.3},
		FeatureNames:  []string{"A", "B"},
		ClassNames:    []string{"Poor", "Standard", "Good"},
		ArtifactPaths: []string{"/tmp/summary.png"},
		Importance: &FeatureImportanceRanking{
			PerClass: []ClassRanking{{Class: "Poor", Features: []FeatureImportance{{Feature: "A", Score: 0.3}}}},
			Overall:  []FeatureImportance{{Feature: "A", Score: 0.3}, {Feature: "B", Index: 1, Score: 0.1}},
		},
	}
	report := NewExplanationReport(contents, "out/report.json")
	contents.FeatureNames[0] = "changed"
	contents.Baseline[0] = 9
	contents.Importance.Overall[0].Score = 9
	contents.Importance.PerClass[0].Features[0].Feature = "changed"
	contents.Importance.PerClass[0].Class = "changed"

	assert.Equal(t, []string{"A", "B"}, report.FeatureNames)
	assert.Equal(t, []float64{0.2, 0.5, 0.3}, report.BaselineValues)
	assert.Equal(t, "out/report.json", report.ExportPath)
	assert.Nil(t, report.ArtifactErrors)
	require.NotSame(t, contents.Importance, report.Importance)
	assert.Equal(t, 0.3, report.Importance.Overall[0].Score)
	assert.Equal(t, "A", report.Importance.PerClass[0].Features[0].Feature)
	assert.Equal(t, "Poor", report.Importance.PerClass[0].Class)

	data, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"attribution_shape":[3,1,2]`)
	assert.NotContains(t, string(data), "artifact_errors")
}
