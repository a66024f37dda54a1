package core

// Classifier is any fitted model that predicts class probabilities for a batch
// of feature rows. Implementations must be safe for concurrent calls.
type Classifier interface {
	// PredictProba returns one probability row per input row, one column per class
	PredictProba(batch [][]float64) ([][]float64, error)
}

// FeatureLayout is implemented by classifiers that know their expected input columns
type FeatureLayout interface {
	FeatureNames() []string
}

// ClassCounter is implemented by classifiers that know their number of output classes
type ClassCounter interface {
	NumClasses() int
}

// ModelLoader loads a fitted classifier from durable storage
type ModelLoader interface {
	// Load returns found=false with a nil error when nothing exists at path
	Load(path string) (model Classifier, found bool, err error)
}

// DataLoader loads a feature matrix and its aligned label vector
type DataLoader interface {
	Load(path string) (*FeatureMatrix, []string, error)
}

// WaterfallLabels carries display labels for a waterfall plot
type WaterfallLabels struct {
	// FeatureLabels has one label per feature, e.g. "Occupation = Engineer"
	FeatureLabels []string
	ClassName     string
}

// Renderer writes plot artifacts for an attribution tensor. Both methods create
// the destination's parent directory when it is missing.
type Renderer interface {
	RenderSummary(t *AttributionTensor, featureNames, classNames []string, destination string) (string, error)
	RenderWaterfall(t *AttributionTensor, instanceIndex, classIndex int, baseline BaselineValues, destination string, labels WaterfallLabels) (string, error)
	// Extension is the file extension of produced artifacts, without the dot
	Extension() string
}

// Exporter serializes a report to durable storage
type Exporter interface {
	// Export always returns the in-memory report; a non-nil error means the write failed
	Export(contents ReportContents, destinationPath string) (*ExplanationReport, error)
}
