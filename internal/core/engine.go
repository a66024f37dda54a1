package core

import (
	"context"
	"math"
	"math/bits"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// EngineOptions configures the attribution engine
type EngineOptions struct {
	// MaxExactFeatures is the largest feature count explained by full coalition enumeration
	MaxExactFeatures int
	// Permutations is the number of sampled feature orderings per instance above that limit
	Permutations int
	// Seed drives permutation sampling
	Seed uint64
	// Workers bounds concurrent instance explanations; 0 means runtime.NumCPU()
	Workers int
}

// DefaultEngineOptions returns the options used when nothing is configured
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		MaxExactFeatures: 10,
		Permutations:     10,
		Seed:             42,
	}
}

// AttributionEngine computes interventional Shapley attributions of a classifier's
// class probabilities against a reference sample. For every instance i and class c,
// baseline[c] + sum(attribution[c][i]) equals the predicted probability up to rounding.
type AttributionEngine struct {
	opts EngineOptions
}

// NewAttributionEngine creates a new attribution engine
func NewAttributionEngine(opts EngineOptions) *AttributionEngine {
	if opts.Permutations <= 0 {
		opts.Permutations = DefaultEngineOptions().Permutations
	}
	if opts.MaxExactFeatures < 0 {
		opts.MaxExactFeatures = 0
	}
	// 2^F coalitions are materialized per instance
	if opts.MaxExactFeatures > 16 {
		opts.MaxExactFeatures = 16
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &AttributionEngine{opts: opts}
}

// Options returns the effective engine options
func (e *AttributionEngine) Options() EngineOptions {
	return e.opts
}

// Exact reports whether a matrix with the given feature count is explained exactly
func (e *AttributionEngine) Exact(features int) bool {
	return features <= e.opts.MaxExactFeatures
}

// Compute returns the attribution tensor for every row of features and the per-class
// baseline over reference. Inputs are not modified.
func (e *AttributionEngine) Compute(ctx context.Context, model Classifier, features, reference *FeatureMatrix) (*AttributionTensor, BaselineValues, error) {
	if model == nil {
		return nil, nil, markf(ErrModelIncompatible, "no classifier supplied")
	}
	if features == nil || reference == nil {
		return nil, nil, markf(ErrShapeMismatch, "feature matrix and reference sample are required")
	}
	if reference.NumFeatures() != features.NumFeatures() {
		return nil, nil, markf(ErrShapeMismatch, "reference sample has %d features, data has %d",
			reference.NumFeatures(), features.NumFeatures())
	}
	if err := CheckFeatureLayout(model, features.Columns); err != nil {
		return nil, nil, err
	}
	if reference.NumRows() == 0 {
		return nil, nil, markf(ErrShapeMismatch, "reference sample is empty")
	}

	refPreds, err := predict(model, reference.Rows, 0)
	if err != nil {
		return nil, nil, err
	}
	numClasses := len(refPreds[0])
	baseline := make(BaselineValues, numClasses)
	for _, p := range refPreds {
		floats.Add(baseline, p)
	}
	floats.Scale(1/float64(len(refPreds)), baseline)

	n, f := features.NumRows(), features.NumFeatures()
	tensor := NewAttributionTensor(numClasses, n, f)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var phi [][]float64
			var err error
			if e.Exact(f) {
				phi, err = e.exactInstance(model, features.Rows[i], reference.Rows, numClasses)
			} else {
				phi, err = e.sampledInstance(model, features.Rows[i], reference.Rows, numClasses, uint64(i))
			}
			if err != nil {
				return err
			}
			for c := 0; c < numClasses; c++ {
				copy(tensor.Instance(c, i), phi[c])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return tensor, baseline, nil
}

// exactInstance enumerates every feature coalition S and weights marginal
// contributions by |S|!(F-|S|-1)!/F!.
func (e *AttributionEngine) exactInstance(model Classifier, x []float64, reference [][]float64, numClasses int) ([][]float64, error) {
	f := len(x)
	coalitions := 1 << f
	m := len(reference)

	batch := make([][]float64, 0, coalitions*m)
	for mask := 0; mask < coalitions; mask++ {
		for _, r := range reference {
			z := make([]float64, f)
			for j := 0; j < f; j++ {
				if mask&(1<<j) != 0 {
					z[j] = x[j]
				} else {
					z[j] = r[j]
				}
			}
			batch = append(batch, z)
		}
	}
	preds, err := predict(model, batch, numClasses)
	if err != nil {
		return nil, err
	}

	// value[mask] is the mean prediction with features in mask taken from x
	value := make([][]float64, coalitions)
	for mask := 0; mask < coalitions; mask++ {
		v := make([]float64, numClasses)
		for _, p := range preds[mask*m : (mask+1)*m] {
			floats.Add(v, p)
		}
		floats.Scale(1/float64(m), v)
		value[mask] = v
	}

	weights := shapleyWeights(f)
	phi := newMatrix(numClasses, f)
	for j := 0; j < f; j++ {
		bit := 1 << j
		for mask := 0; mask < coalitions; mask++ {
			if mask&bit != 0 {
				continue
			}
			w := weights[bits.OnesCount(uint(mask))]
			with, without := value[mask|bit], value[mask]
			for c := 0; c < numClasses; c++ {
				phi[c][j] += w * (with[c] - without[c])
			}
		}
	}
	return phi, nil
}

// sampledInstance walks sampled feature orderings from each reference row to x,
// crediting every prediction change to the feature just switched. Each ordering is
// followed by its reversal. The seed is derived from the instance index so results
// do not depend on scheduling.
func (e *AttributionEngine) sampledInstance(model Classifier, x []float64, reference [][]float64, numClasses int, instance uint64) ([][]float64, error) {
	f := len(x)
	rng := rand.New(rand.NewPCG(e.opts.Seed, instance))
	phi := newMatrix(numClasses, f)

	var perm []int
	for k := 0; k < e.opts.Permutations; k++ {
		if k%2 == 0 {
			perm = rng.Perm(f)
		} else {
			perm = reversed(perm)
		}

		batch := make([][]float64, 0, len(reference)*(f+1))
		for _, r := range reference {
			z := append([]float64(nil), r...)
			batch = append(batch, z)
			for _, j := range perm {
				next := append([]float64(nil), z...)
				next[j] = x[j]
				batch = append(batch, next)
				z = next
			}
		}
		preds, err := predict(model, batch, numClasses)
		if err != nil {
			return nil, err
		}
		for r := range reference {
			walk := preds[r*(f+1) : (r+1)*(f+1)]
			for step, j := range perm {
				before, after := walk[step], walk[step+1]
				for c := 0; c < numClasses; c++ {
					phi[c][j] += after[c] - before[c]
				}
			}
		}
	}

	scale := 1 / float64(e.opts.Permutations*len(reference))
	for c := range phi {
		floats.Scale(scale, phi[c])
	}
	return phi, nil
}

// predict runs the model and checks the output is one finite probability row per
// input with numClasses columns. numClasses <= 0 accepts any consistent positive width.
func predict(model Classifier, batch [][]float64, numClasses int) ([][]float64, error) {
	preds, err := model.PredictProba(batch)
	if err != nil {
		return nil, MarkWrapf(err, ErrModelIncompatible, "probability prediction failed")
	}
	if len(preds) != len(batch) {
		return nil, markf(ErrModelIncompatible, "model returned %d prediction rows for %d inputs", len(preds), len(batch))
	}
	if len(preds) == 0 {
		return preds, nil
	}
	if numClasses <= 0 {
		numClasses = len(preds[0])
		if numClasses == 0 {
			return nil, markf(ErrModelIncompatible, "model returned zero classes")
		}
	}
	for i, p := range preds {
		if len(p) != numClasses {
			return nil, markf(ErrModelIncompatible, "prediction row %d has %d classes, expected %d", i, len(p), numClasses)
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, markf(ErrModelIncompatible, "prediction row %d is not finite", i)
			}
		}
	}
	return preds, nil
}

// shapleyWeights returns w[s] = s!(f-s-1)!/f! for s in [0, f)
func shapleyWeights(f int) []float64 {
	weights := make([]float64, f)
	for s := 0; s < f; s++ {
		// binom(f-1, s)
		binom := 1.0
		for k := 1; k <= s; k++ {
			binom = binom * float64(f-1-s+k) / float64(k)
		}
		weights[s] = 1 / (float64(f) * binom)
	}
	return weights
}

func newMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for i := range m {
		m[i] = make([]float64, cols)
	}
	return m
}

func reversed(s []int) []int {
	out := make([]int, len(s))
	for i, v := range s {
		out[len(s)-1-i] = v
	}
	return out
}
