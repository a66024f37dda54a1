package core

import (
	"math/rand/v2"
	"sort"
)

// SampleReference picks at most size rows of m as the baseline population.
// The choice depends only on seed and the matrix row count, and the chosen rows
// keep their original relative order. size <= 0 or size >= NumRows returns m.
func SampleReference(m *FeatureMatrix, size int, seed uint64) *FeatureMatrix {
	n := m.NumRows()
	if size <= 0 || size >= n {
		return m
	}
	rng := rand.New(rand.NewPCG(seed, uint64(n)))
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	// partial Fisher-Yates over the first size positions
	for i := 0; i < size; i++ {
		j := i + rng.IntN(n-i)
		idx[i], idx[j] = idx[j], idx[i]
	}
	chosen := idx[:size]
	sort.Ints(chosen)
	return m.Subset(chosen)
}
