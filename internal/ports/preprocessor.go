package ports

import (
	"context"

	"github.com/mikey/credit-explainer/internal/core"
)

// Split is the output of the upstream preprocessing pipeline
type Split struct {
	TrainFeatures *core.FeatureMatrix
	TestFeatures  *core.FeatureMatrix
	TrainLabels   []string
	TestLabels    []string
	// Encoders maps each categorical column to the encoder used on it
	Encoders core.Encoders
}

// Preprocessor cleans, encodes and splits raw applicant data. It lives upstream of
// the explanation pipeline, which only consumes its saved output.
type Preprocessor interface {
	Preprocess(ctx context.Context) (*Split, error)
}
