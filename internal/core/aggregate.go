package core

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// SummaryAggregator reduces an attribution tensor to global feature rankings
type SummaryAggregator struct{}

// NewSummaryAggregator creates a new summary aggregator
func NewSummaryAggregator() *SummaryAggregator {
	return &SummaryAggregator{}
}

// Aggregate ranks features by mean absolute attribution for each class, and overall
// by the mean of the per-class scores. Ties keep the original column order.
// A tensor with zero instances yields all-zero scores in column order.
func (a *SummaryAggregator) Aggregate(t *AttributionTensor, featureNames, classNames []string) (*FeatureImportanceRanking, error) {
	shape := t.Shape()
	if len(featureNames) != shape.Features {
		return nil, markf(ErrShapeMismatch, "%d feature names for %d features", len(featureNames), shape.Features)
	}
	if len(classNames) != shape.Classes {
		return nil, markf(ErrShapeMismatch, "%d class names for %d classes", len(classNames), shape.Classes)
	}

	overall := make([]float64, shape.Features)
	ranking := &FeatureImportanceRanking{PerClass: make([]ClassRanking, shape.Classes)}
	for c := 0; c < shape.Classes; c++ {
		scores := MeanAbsAttribution(t, c)
		floats.Add(overall, scores)
		ranking.PerClass[c] = ClassRanking{
			Class:    classNames[c],
			Index:    c,
			Features: rank(scores, featureNames),
		}
	}
	if shape.Classes > 0 {
		floats.Scale(1/float64(shape.Classes), overall)
	}
	ranking.Overall = rank(overall, featureNames)
	return ranking, nil
}

// MeanAbsAttribution returns mean |attribution| per feature over all instances of class c
func MeanAbsAttribution(t *AttributionTensor, c int) []float64 {
	shape := t.Shape()
	scores := make([]float64, shape.Features)
	if shape.Instances == 0 {
		return scores
	}
	for _, row := range t.Class(c) {
		for j, v := range row {
			scores[j] += math.Abs(v)
		}
	}
	floats.Scale(1/float64(shape.Instances), scores)
	return scores
}

func rank(scores []float64, names []string) []FeatureImportance {
	out := make([]FeatureImportance, len(scores))
	for j, s := range scores {
		out[j] = FeatureImportance{Feature: names[j], Index: j, Score: s}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Score > out[b].Score
	})
	return out
}

// Top returns the n highest ranked entries of the overall ranking
func (r *FeatureImportanceRanking) Top(n int) []FeatureImportance {
	if n <= 0 || n >= len(r.Overall) {
		return r.Overall
	}
	return r.Overall[:n]
}

// Clone returns a deep copy of the ranking
func (r *FeatureImportanceRanking) Clone() *FeatureImportanceRanking {
	if r == nil {
		return nil
	}
	out := &FeatureImportanceRanking{Overall: cloneImportance(r.Overall)}
	if r.PerClass != nil {
		out.PerClass = make([]ClassRanking, len(r.PerClass))
		for c, cr := range r.PerClass {
			cr.Features = cloneImportance(cr.Features)
			out.PerClass[c] = cr
		}
	}
	return out
}

func cloneImportance(in []FeatureImportance) []FeatureImportance {
	if in == nil {
		return nil
	}
	return append(make([]FeatureImportance, 0, len(in)), in...)
}
