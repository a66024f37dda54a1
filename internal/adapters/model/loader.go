package model

import (
	"io/fs"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/mikey/credit-explainer/internal/core"
	"gopkg.in/yaml.v3"
)

// Supported model kinds
const (
	KindSoftmax = "softmax"
	KindForest  = "forest"
)

// document is the on-disk model format. JSON documents decode as YAML.
type document struct {
	Kind         string      `yaml:"kind"`
	FeatureNames []string    `yaml:"feature_names"`
	ClassNames   []string    `yaml:"class_names"`
	Weights      [][]float64 `yaml:"weights"`
	Intercepts   []float64   `yaml:"intercepts"`
	Trees        []Tree      `yaml:"trees"`
}

// FileLoader loads classifiers from YAML or JSON model documents
type FileLoader struct{}

// NewFileLoader creates a new model file loader
func NewFileLoader() *FileLoader {
	return &FileLoader{}
}

// Load reads the model at path. A missing file yields found=false and no error.
func (l *FileLoader) Load(path string) (core.Classifier, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, errors.Wrapf(err, "failed to read model file %s", path)
	}
	model, err := Parse(data)
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to load model %s", path)
	}
	return model, true, nil
}

// Parse decodes a model document
func Parse(data []byte) (core.Classifier, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, core.MarkWrapf(err, core.ErrModelIncompatible, "failed to decode model document")
	}
	switch doc.Kind {
	case KindSoftmax:
		m, err := NewSoftmax(doc.FeatureNames, doc.ClassNames, doc.Weights, doc.Intercepts)
		if err != nil {
			return nil, err
		}
		return m, nil
	case KindForest:
		m, err := NewForest(doc.FeatureNames, doc.ClassNames, doc.Trees)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "":
		return nil, incompatiblef("model document has no kind")
	default:
		return nil, errors.WithHintf(incompatiblef("unsupported model kind: %s", doc.Kind),
			"supported kinds are %q and %q", KindSoftmax, KindForest)
	}
}

func incompatiblef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), core.ErrModelIncompatible)
}

func shapef(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), core.ErrShapeMismatch)
}

func allFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
