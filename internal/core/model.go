package core

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// FeatureMatrix holds named numeric feature columns for N instances.
// Values are stored row-major: Rows[i][j] is feature Columns[j] of instance i.
type FeatureMatrix struct {
	Columns []string
	Rows    [][]float64
}

// NewFeatureMatrix validates column names and row widths and returns a matrix
func NewFeatureMatrix(columns []string, rows [][]float64) (*FeatureMatrix, error) {
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, ok := seen[c]; ok {
			return nil, markf(ErrShapeMismatch, "duplicate feature column %q", c)
		}
		seen[c] = struct{}{}
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, markf(ErrShapeMismatch, "row %d has %d values, expected %d", i, len(row), len(columns))
		}
	}
	return &FeatureMatrix{Columns: columns, Rows: rows}, nil
}

// NumRows returns the number of instances
func (m *FeatureMatrix) NumRows() int {
	return len(m.Rows)
}

// NumFeatures returns the number of feature columns
func (m *FeatureMatrix) NumFeatures() int {
	return len(m.Columns)
}

// Head returns a matrix sharing the first n rows. n <= 0 or n >= NumRows returns m.
func (m *FeatureMatrix) Head(n int) *FeatureMatrix {
	if n <= 0 || n >= len(m.Rows) {
		return m
	}
	return &FeatureMatrix{Columns: m.Columns, Rows: m.Rows[:n]}
}

// Subset returns a matrix sharing the rows at the given indices, in the given order
func (m *FeatureMatrix) Subset(indices []int) *FeatureMatrix {
	rows := make([][]float64, len(indices))
	for k, idx := range indices {
		rows[k] = m.Rows[idx]
	}
	return &FeatureMatrix{Columns: m.Columns, Rows: rows}
}

// TensorShape is the (classes, instances, features) extent of an AttributionTensor
type TensorShape struct {
	Classes   int
	Instances int
	Features  int
}

// Dims returns the shape as a slice in [classes, instances, features] order
func (s TensorShape) Dims() []int {
	return []int{s.Classes, s.Instances, s.Features}
}

func (s TensorShape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s.Classes, s.Instances, s.Features)
}

// MarshalJSON encodes the shape as a three element array
func (s TensorShape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Dims())
}

// UnmarshalJSON decodes a three element array
func (s *TensorShape) UnmarshalJSON(data []byte) error {
	var dims []int
	if err := json.Unmarshal(data, &dims); err != nil {
		return err
	}
	if len(dims) != 3 {
		return fmt.Errorf("attribution shape must have 3 dimensions, got %d", len(dims))
	}
	s.Classes, s.Instances, s.Features = dims[0], dims[1], dims[2]
	return nil
}

// AttributionTensor holds local attributions indexed [class][instance][feature]
type AttributionTensor struct {
	shape  TensorShape
	values [][][]float64
}

// NewAttributionTensor allocates a zeroed tensor of the given shape
func NewAttributionTensor(classes, instances, features int) *AttributionTensor {
	values := make([][][]float64, classes)
	for c := range values {
		backing := make([]float64, instances*features)
		values[c] = make([][]float64, instances)
		for i := range values[c] {
			values[c][i] = backing[i*features : (i+1)*features : (i+1)*features]
		}
	}
	return &AttributionTensor{
		shape:  TensorShape{Classes: classes, Instances: instances, Features: features},
		values: values,
	}
}

// Shape returns the tensor extent
func (t *AttributionTensor) Shape() TensorShape {
	return t.shape
}

// At returns the attribution of feature f for instance i and class c
func (t *AttributionTensor) At(c, i, f int) float64 {
	return t.values[c][i][f]
}

// Set stores the attribution of feature f for instance i and class c
func (t *AttributionTensor) Set(c, i, f int, v float64) {
	t.values[c][i][f] = v
}

// Instance returns the per-feature attributions of instance i for class c.
// The returned slice aliases the tensor.
func (t *AttributionTensor) Instance(c, i int) []float64 {
	return t.values[c][i]
}

// Class returns the [instance][feature] matrix for class c. The result aliases the tensor.
func (t *AttributionTensor) Class(c int) [][]float64 {
	return t.values[c]
}

// Sum returns the summed attribution of instance i for class c
func (t *AttributionTensor) Sum(c, i int) float64 {
	var total float64
	for _, v := range t.values[c][i] {
		total += v
	}
	return total
}

// Equal reports whether both tensors have the same shape and identical values
func (t *AttributionTensor) Equal(o *AttributionTensor) bool {
	if t.shape != o.shape {
		return false
	}
	for c := range t.values {
		for i := range t.values[c] {
			for f, v := range t.values[c][i] {
				if math.Float64bits(v) != math.Float64bits(o.values[c][i][f]) {
					return false
				}
			}
		}
	}
	return true
}

// BaselineValues holds one expected model output per class
type BaselineValues []float64

// CategoryEncoder maps encoded integer codes of a categorical column back to category names
type CategoryEncoder struct {
	Column     string   `yaml:"column" json:"column"`
	Categories []string `yaml:"categories" json:"categories"`
}

// Decode returns the category name for an encoded value
func (e *CategoryEncoder) Decode(v float64) (string, bool) {
	if v != math.Trunc(v) || v < 0 || int(v) >= len(e.Categories) {
		return "", false
	}
	return e.Categories[int(v)], true
}

// Encoders maps a column name to its categorical encoder
type Encoders map[string]*CategoryEncoder

// FeatureImportance is the aggregated importance score of one feature
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Index   int     `json:"index"`
	Score   float64 `json:"score"`
}

// ClassRanking is a ranked feature list for one class
type ClassRanking struct {
	Class    string              `json:"class"`
	Index    int                 `json:"index"`
	Features []FeatureImportance `json:"features"`
}

// FeatureImportanceRanking holds per-class and overall feature rankings,
// each sorted by descending score
type FeatureImportanceRanking struct {
	PerClass []ClassRanking      `json:"per_class"`
	Overall  []FeatureImportance `json:"overall"`
}

// ReportContents is everything the exporter serializes besides the export path
type ReportContents struct {
	RunID          string
	GeneratedAt    time.Time
	Shape          TensorShape
	Baseline       BaselineValues
	FeatureNames   []string
	ClassNames     []string
	ArtifactPaths  []string
	ArtifactErrors []string
	Importance     *FeatureImportanceRanking
}

// ExplanationReport is the terminal artifact of one pipeline run.
// It is built once by NewExplanationReport and must not be modified afterwards.
type ExplanationReport struct {
	RunID            string                    `json:"run_id"`
	GeneratedAt      time.Time                 `json:"generated_at"`
	AttributionShape TensorShape               `json:"attribution_shape"`
	BaselineValues   []float64                 `json:"baseline_values"`
	FeatureNames     []string                  `json:"feature_names"`
	ClassNames       []string                  `json:"class_names"`
	ArtifactPaths    []string                  `json:"artifact_paths"`
	ArtifactErrors   []string                  `json:"artifact_errors,omitempty"`
	Importance       *FeatureImportanceRanking `json:"importance,omitempty"`
	ExportPath       string                    `json:"export_path"`
}

// NewExplanationReport copies contents into a new report bound to exportPath
func NewExplanationReport(contents ReportContents, exportPath string) *ExplanationReport {
	return &ExplanationReport{
		RunID:            contents.RunID,
		GeneratedAt:      contents.GeneratedAt,
		AttributionShape: contents.Shape,
		BaselineValues:   append([]float64{}, contents.Baseline...),
		FeatureNames:     append([]string{}, contents.FeatureNames...),
		ClassNames:       append([]string{}, contents.ClassNames...),
		ArtifactPaths:    append([]string{}, contents.ArtifactPaths...),
		ArtifactErrors:   append([]string(nil), contents.ArtifactErrors...),
		Importance:       contents.Importance.Clone(),
		ExportPath:       exportPath,
	}
}

// Run statuses recorded in the history
const (
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// RunRecord is one entry in the explanation run history
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	ModelPath  string
	DataPath   string
	ReportPath string
	Shape      TensorShape
	Baseline   []float64
	Status     string
	Error      string
}
