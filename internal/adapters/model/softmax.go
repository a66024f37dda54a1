package model

import (
	"math"

	"github.com/mikey/credit-explainer/internal/core"
	"gonum.org/v1/gonum/mat"
)

// Softmax is a multinomial logistic regression classifier
type Softmax struct {
	featureNames []string
	classNames   []string
	weights      *mat.Dense // classes x features
	intercepts   []float64
}

// NewSoftmax creates a softmax classifier from a classes x features weight table
func NewSoftmax(featureNames, classNames []string, weights [][]float64, intercepts []float64) (*Softmax, error) {
	numClasses, numFeatures := len(weights), len(featureNames)
	if numClasses == 0 || numFeatures == 0 {
		return nil, incompatiblef("softmax model needs at least one class and one feature")
	}
	if len(intercepts) != numClasses {
		return nil, incompatiblef("softmax model has %d intercepts for %d classes", len(intercepts), numClasses)
	}
	if len(classNames) > 0 && len(classNames) != numClasses {
		return nil, incompatiblef("softmax model names %d classes but has %d weight rows", len(classNames), numClasses)
	}
	flat := make([]float64, 0, numClasses*numFeatures)
	for c, row := range weights {
		if len(row) != numFeatures {
			return nil, incompatiblef("softmax weight row %d has %d values, expected %d", c, len(row), numFeatures)
		}
		flat = append(flat, row...)
	}
	if !allFinite(flat) || !allFinite(intercepts) {
		return nil, incompatiblef("softmax parameters must be finite")
	}
	return &Softmax{
		featureNames: featureNames,
		classNames:   classNames,
		weights:      mat.NewDense(numClasses, numFeatures, flat),
		intercepts:   intercepts,
	}, nil
}

// PredictProba returns softmax(W·x + b) for every row of batch
func (m *Softmax) PredictProba(batch [][]float64) ([][]float64, error) {
	if len(batch) == 0 {
		return [][]float64{}, nil
	}
	numClasses, numFeatures := m.weights.Dims()
	flat := make([]float64, 0, len(batch)*numFeatures)
	for i, row := range batch {
		if len(row) != numFeatures {
			return nil, shapef("input row %d has %d features, model expects %d", i, len(row), numFeatures)
		}
		flat = append(flat, row...)
	}
	x := mat.NewDense(len(batch), numFeatures, flat)

	var logits mat.Dense
	logits.Mul(x, m.weights.T())

	out := make([][]float64, len(batch))
	for i := range out {
		p := make([]float64, numClasses)
		max := math.Inf(-1)
		for c := range p {
			p[c] = logits.At(i, c) + m.intercepts[c]
			if p[c] > max {
				max = p[c]
			}
		}
		var sum float64
		for c := range p {
			p[c] = math.Exp(p[c] - max)
			sum += p[c]
		}
		for c := range p {
			p[c] /= sum
		}
		out[i] = p
	}
	return out, nil
}

// FeatureNames returns the expected input columns
func (m *Softmax) FeatureNames() []string {
	return m.featureNames
}

// NumClasses returns the number of output classes
func (m *Softmax) NumClasses() int {
	rows, _ := m.weights.Dims()
	return rows
}

// ClassNames returns the class names stored with the model, if any
func (m *Softmax) ClassNames() []string {
	return m.classNames
}

var _ core.Classifier = (*Softmax)(nil)
