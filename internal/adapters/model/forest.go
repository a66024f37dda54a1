package model

import (
	"github.com/mikey/credit-explainer/internal/core"
)

// TreeNode is one node of a binary decision tree. Leaves carry Value, one
// probability per class; split nodes send x[Feature] <= Threshold to Left.
type TreeNode struct {
	Feature   int       `yaml:"feature"`
	Threshold float64   `yaml:"threshold"`
	Left      int       `yaml:"left"`
	Right     int       `yaml:"right"`
	Value     []float64 `yaml:"value"`
}

func (n *TreeNode) isLeaf() bool {
	return len(n.Value) > 0
}

// Tree is a binary decision tree stored as a node list rooted at index 0
type Tree struct {
	Nodes []TreeNode `yaml:"nodes"`
}

// Forest averages the leaf class distributions of its trees
type Forest struct {
	featureNames []string
	classNames   []string
	trees        []Tree
	numClasses   int
}

// NewForest validates trees and creates a forest classifier. Child indices must
// point forward in the node list, which rules out cycles.
func NewForest(featureNames, classNames []string, trees []Tree) (*Forest, error) {
	if len(trees) == 0 {
		return nil, incompatiblef("forest model has no trees")
	}
	if len(featureNames) == 0 {
		return nil, incompatiblef("forest model needs at least one feature")
	}
	numClasses := 0
	for t, tree := range trees {
		if len(tree.Nodes) == 0 {
			return nil, incompatiblef("tree %d has no nodes", t)
		}
		for i, node := range tree.Nodes {
			if node.isLeaf() {
				if numClasses == 0 {
					numClasses = len(node.Value)
				}
				if len(node.Value) != numClasses {
					return nil, incompatiblef("tree %d leaf %d has %d classes, expected %d", t, i, len(node.Value), numClasses)
				}
				if !allFinite(node.Value) {
					return nil, incompatiblef("tree %d leaf %d has non-finite values", t, i)
				}
				continue
			}
			if node.Feature < 0 || node.Feature >= len(featureNames) {
				return nil, incompatiblef("tree %d node %d splits on unknown feature %d", t, i, node.Feature)
			}
			for _, child := range []int{node.Left, node.Right} {
				if child <= i || child >= len(tree.Nodes) {
					return nil, incompatiblef("tree %d node %d has invalid child %d", t, i, child)
				}
			}
		}
	}
	if len(classNames) > 0 && len(classNames) != numClasses {
		return nil, incompatiblef("forest model names %d classes but leaves carry %d", len(classNames), numClasses)
	}
	return &Forest{
		featureNames: featureNames,
		classNames:   classNames,
		trees:        trees,
		numClasses:   numClasses,
	}, nil
}

// PredictProba returns the mean leaf distribution across trees for every row
func (f *Forest) PredictProba(batch [][]float64) ([][]float64, error) {
	out := make([][]float64, len(batch))
	for i, row := range batch {
		if len(row) != len(f.featureNames) {
			return nil, shapef("input row %d has %d features, model expects %d", i, len(row), len(f.featureNames))
		}
		p := make([]float64, f.numClasses)
		for t := range f.trees {
			leaf := f.trees[t].leaf(row)
			for c, v := range leaf {
				p[c] += v
			}
		}
		scale := 1 / float64(len(f.trees))
		for c := range p {
			p[c] *= scale
		}
		out[i] = p
	}
	return out, nil
}

func (t *Tree) leaf(row []float64) []float64 {
	node := &t.Nodes[0]
	for !node.isLeaf() {
		if row[node.Feature] <= node.Threshold {
			node = &t.Nodes[node.Left]
		} else {
			node = &t.Nodes[node.Right]
		}
	}
	return node.Value
}

// FeatureNames returns the expected input columns
func (f *Forest) FeatureNames() []string {
	return f.featureNames
}

// NumClasses returns the number of output classes
func (f *Forest) NumClasses() int {
	return f.numClasses
}

// ClassNames returns the class names stored with the model, if any
func (f *Forest) ClassNames() []string {
	return f.classNames
}

var _ core.Classifier = (*Forest)(nil)
